package bootstrap

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/config"
	connRepo "github.com/himTresor1/celia-sub001/internal/modules/connection/repository"
	connService "github.com/himTresor1/celia-sub001/internal/modules/connection/service"
	engagementRepo "github.com/himTresor1/celia-sub001/internal/modules/engagement/repository"
	engagementService "github.com/himTresor1/celia-sub001/internal/modules/engagement/service"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	eventService "github.com/himTresor1/celia-sub001/internal/modules/event/service"
	invRepo "github.com/himTresor1/celia-sub001/internal/modules/invitation/repository"
	invService "github.com/himTresor1/celia-sub001/internal/modules/invitation/service"
	notifRepo "github.com/himTresor1/celia-sub001/internal/modules/notification/repository"
	notifService "github.com/himTresor1/celia-sub001/internal/modules/notification/service"
	reputationRepo "github.com/himTresor1/celia-sub001/internal/modules/reputation/repository"
	reputationService "github.com/himTresor1/celia-sub001/internal/modules/reputation/service"
	statService "github.com/himTresor1/celia-sub001/internal/modules/stat/service"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
)

// Services holds every domain service wired against one database handle.
// The dispatcher is created but not started.
type Services struct {
	Users         userRepo.UserRepository
	Connections   connService.ConnectionService
	Events        eventService.EventService
	Invitations   invService.InvitationService
	Engagement    engagementService.EngagementService
	Reputation    reputationService.ReputationService
	Notifications notifService.NotificationService
	Stats         statService.StatService
	Dispatcher    *notifService.Dispatcher
}

func NewServices(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Services {
	users := userRepo.NewUserRepository(db)
	connections := connRepo.NewConnectionRepository(db)
	events := eventRepo.NewEventRepository(db)
	invitations := invRepo.NewInvitationRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)

	keys := notifService.VAPIDKeys{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
	}
	var senders []notifService.Sender
	if keys.Enabled() {
		senders = append(senders, notifService.NewWebPushSender(notifications, keys))
	}
	dispatcher := notifService.NewDispatcher(notifications, redisClient, senders, cfg.NotifyWorkers, cfg.NotifyQueueSize)

	reputation := reputationService.NewReputationService(db, reputationRepo.NewReputationRepository(db), users)
	engagement := engagementService.NewEngagementService(db, engagementRepo.NewEngagementRepository(db), users, reputation, cfg.StreakLocation, nil)

	return &Services{
		Users: users,
		Connections: connService.NewConnectionService(db, connections, users, engagement, reputation, dispatcher, redisClient, connService.Options{
			PulseWindow: cfg.PulseWindow,
			RateLimit:   cfg.RateLimitPulse,
		}),
		Events: eventService.NewEventService(events),
		Invitations: invService.NewInvitationService(db, invitations, events, users, engagement, dispatcher, redisClient, invService.Options{
			RateLimit: cfg.RateLimitBulkInvite,
		}),
		Engagement:    engagement,
		Reputation:    reputation,
		Notifications: notifService.NewNotificationService(notifications, keys),
		Stats:         statService.NewStatService(users, events, invitations, connections),
		Dispatcher:    dispatcher,
	}
}
