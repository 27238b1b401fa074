package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
	connRepo "github.com/himTresor1/celia-sub001/internal/modules/connection/repository"
	engagement "github.com/himTresor1/celia-sub001/internal/modules/engagement/service"
	notifService "github.com/himTresor1/celia-sub001/internal/modules/notification/service"
	reputation "github.com/himTresor1/celia-sub001/internal/modules/reputation/service"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
	"github.com/himTresor1/celia-sub001/pkg/metrics"
	"github.com/himTresor1/celia-sub001/pkg/ratelimiter"
)

const DefaultPulseWindow = 24 * time.Hour

// Relationship states as seen by readers. An expired pending row reads as absent.
const (
	StateAbsent  = "absent"
	StatePending = "pending"
	StateActive  = "active"
)

type PulseResult struct {
	Status       entity.ConnectionStatus `json:"status"`
	ExpiresAt    *time.Time              `json:"expires_at"`
	CompletedAt  *time.Time              `json:"completed_at"`
	ConnectionID uuid.UUID               `json:"connection_id"`
}

type Friend struct {
	UserID      uuid.UUID  `json:"user_id"`
	ConnectedAt *time.Time `json:"connected_at"`
}

type Options struct {
	PulseWindow time.Duration
	RateLimit   time.Duration
	Now         func() time.Time
}

type ConnectionService interface {
	SendPulse(ctx context.Context, from, to uuid.UUID) (*PulseResult, error)
	Unfriend(ctx context.Context, userID, otherID uuid.UUID) error
	AreConnected(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	State(ctx context.Context, userID, otherID uuid.UUID) (string, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]Friend, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type connectionService struct {
	db          *gorm.DB
	repo        connRepo.ConnectionRepository
	userRepo    userRepo.UserRepository
	engagement  engagement.EngagementService
	reputation  reputation.ReputationService
	notifier    notifService.Notifier
	redisClient *redis.Client
	window      time.Duration
	rateLimit   time.Duration
	now         func() time.Time
}

func NewConnectionService(
	db *gorm.DB,
	repo connRepo.ConnectionRepository,
	userRepo userRepo.UserRepository,
	engagement engagement.EngagementService,
	reputation reputation.ReputationService,
	notifier notifService.Notifier,
	redisClient *redis.Client,
	opts Options,
) ConnectionService {
	if opts.PulseWindow <= 0 {
		opts.PulseWindow = DefaultPulseWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &connectionService{
		db:          db,
		repo:        repo,
		userRepo:    userRepo,
		engagement:  engagement,
		reputation:  reputation,
		notifier:    notifier,
		redisClient: redisClient,
		window:      opts.PulseWindow,
		rateLimit:   opts.RateLimit,
		now:         opts.Now,
	}
}

func (s *connectionService) SendPulse(ctx context.Context, from, to uuid.UUID) (*PulseResult, error) {
	if from == to {
		return nil, apperror.New(http.StatusBadRequest, "cannot send a pulse to yourself", apperror.ErrBadRequest)
	}

	if _, err := s.userRepo.FindByID(ctx, to); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	userA, userB := entity.CanonicalPair(from, to)

	resend, err := s.holdsLivePulse(ctx, from, userA, userB)
	if err != nil {
		return nil, err
	}
	if !resend {
		if err := ratelimiter.Enforce(ctx, s.redisClient, from, ratelimiter.PairScope(ratelimiter.ScopePulse, to), s.rateLimit); err != nil {
			return nil, err
		}
	}

	var (
		result    PulseResult
		activated bool
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conns := s.repo.WithTx(tx)

		// The insert makes the row lockable even when no pulse exists yet.
		if err := conns.EnsurePair(ctx, userA, userB, from); err != nil {
			return fmt.Errorf("ensure connection row: %w", err)
		}
		conn, err := conns.FindPairForUpdate(ctx, userA, userB)
		if err != nil {
			return fmt.Errorf("lock connection row: %w", err)
		}

		if conn.Status == entity.ConnectionActive {
			result = resultOf(conn)
			return nil
		}

		now := s.now()
		if conn.PulseExpiresAt != nil && now.After(*conn.PulseExpiresAt) {
			conn.PulseSentByA = nil
			conn.PulseSentByB = nil
			conn.PulseExpiresAt = nil
		}
		if conn.PulseSentByA == nil && conn.PulseSentByB == nil {
			conn.InitiatedBy = from
		}

		sentAt := now
		expiresAt := now.Add(s.window)
		if from == conn.UserAID {
			conn.PulseSentByA = &sentAt
		} else {
			conn.PulseSentByB = &sentAt
		}
		conn.PulseExpiresAt = &expiresAt

		if conn.PulseSentByA != nil && conn.PulseSentByB != nil {
			conn.Status = entity.ConnectionActive
			conn.CompletedAt = &sentAt
			activated = true
		}

		if err := conns.Save(ctx, conn); err != nil {
			return fmt.Errorf("save connection: %w", err)
		}

		if activated {
			for _, participant := range []uuid.UUID{conn.UserAID, conn.UserBID} {
				_, err := s.engagement.Record(ctx, tx, participant, engagement.ActionFriendAdd, map[string]interface{}{
					"connection_id": conn.ID.String(),
					"friend_id":     conn.OtherUser(participant).String(),
				})
				if err != nil {
					return err
				}
			}
		}

		result = resultOf(conn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PulsesTotal.WithLabelValues(string(result.Status)).Inc()
	if activated {
		metrics.ConnectionsActivated.Inc()
		s.notify(from, "You are connected", "Your energy pulses matched.", to, result.ConnectionID)
		s.notify(to, "You are connected", "Your energy pulses matched.", from, result.ConnectionID)
	} else if result.Status == entity.ConnectionPending {
		s.notify(to, "New energy pulse", "Someone sent you an energy pulse. Pulse back to connect.", from, result.ConnectionID)
	}

	return &result, nil
}

func (s *connectionService) Unfriend(ctx context.Context, userID, otherID uuid.UUID) error {
	if userID == otherID {
		return apperror.New(http.StatusBadRequest, "cannot unfriend yourself", apperror.ErrBadRequest)
	}
	userA, userB := entity.CanonicalPair(userID, otherID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.repo.WithTx(tx).DeletePair(ctx, userA, userB)
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		for _, id := range []uuid.UUID{userA, userB} {
			if _, err := s.reputation.Recompute(ctx, tx, id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return nil
	})
}

func (s *connectionService) AreConnected(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	state, err := s.State(ctx, userID, otherID)
	if err != nil {
		return false, err
	}
	return state == StateActive, nil
}

func (s *connectionService) State(ctx context.Context, userID, otherID uuid.UUID) (string, error) {
	if userID == otherID {
		return StateAbsent, nil
	}
	userA, userB := entity.CanonicalPair(userID, otherID)

	conn, err := s.repo.FindPair(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StateAbsent, nil
		}
		return "", err
	}

	switch {
	case conn.Status == entity.ConnectionActive:
		return StateActive, nil
	case conn.PulseExpiresAt == nil || s.now().After(*conn.PulseExpiresAt):
		return StateAbsent, nil
	default:
		return StatePending, nil
	}
}

func (s *connectionService) ListFriends(ctx context.Context, userID uuid.UUID) ([]Friend, error) {
	conns, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]Friend, 0, len(conns))
	for _, c := range conns {
		friends = append(friends, Friend{
			UserID:      c.OtherUser(userID),
			ConnectedAt: c.CompletedAt,
		})
	}
	return friends, nil
}

func (s *connectionService) SweepExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpiredPending(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.PendingPulsesSwept.Add(float64(removed))
	return removed, nil
}

// holdsLivePulse reports whether from already has an unexpired pending pulse
// on the pair. Such a resend only refreshes the window and bypasses the cooldown.
func (s *connectionService) holdsLivePulse(ctx context.Context, from, userA, userB uuid.UUID) (bool, error) {
	conn, err := s.repo.FindPair(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if conn.Status != entity.ConnectionPending || conn.PulseExpiresAt == nil || s.now().After(*conn.PulseExpiresAt) {
		return false, nil
	}
	if from == conn.UserAID {
		return conn.PulseSentByA != nil, nil
	}
	return conn.PulseSentByB != nil, nil
}

func (s *connectionService) notify(userID uuid.UUID, title, body string, otherID, connectionID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(notifService.Message{
		UserID: userID,
		Title:  title,
		Body:   body,
		Metadata: map[string]interface{}{
			"type":          "connection",
			"user_id":       otherID.String(),
			"connection_id": connectionID.String(),
		},
	})
}

func resultOf(conn *entity.Connection) PulseResult {
	return PulseResult{
		Status:       conn.Status,
		ExpiresAt:    conn.PulseExpiresAt,
		CompletedAt:  conn.CompletedAt,
		ConnectionID: conn.ID,
	}
}
