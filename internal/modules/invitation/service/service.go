package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
	engagement "github.com/himTresor1/celia-sub001/internal/modules/engagement/service"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	invRepo "github.com/himTresor1/celia-sub001/internal/modules/invitation/repository"
	notifService "github.com/himTresor1/celia-sub001/internal/modules/notification/service"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
	"github.com/himTresor1/celia-sub001/pkg/metrics"
	"github.com/himTresor1/celia-sub001/pkg/ratelimiter"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type BulkInviteResult struct {
	Created []uuid.UUID `json:"created"`
	Skipped int         `json:"skipped"`
}

type Options struct {
	RateLimit time.Duration
	Now       func() time.Time
}

type InvitationService interface {
	// AuthorizeHost loads the event and fails Forbidden unless hostID hosts it.
	AuthorizeHost(ctx context.Context, hostID, eventID uuid.UUID) (*entity.Event, error)
	BulkInvite(ctx context.Context, hostID, eventID uuid.UUID, inviteeIDs []uuid.UUID, message string) (*BulkInviteResult, error)
	Respond(ctx context.Context, userID, invitationID uuid.UUID, status entity.InvitationStatus) (*entity.EventInvitation, error)
	ListReceived(ctx context.Context, userID uuid.UUID, status entity.InvitationStatus, page, limit int) ([]entity.EventInvitation, int64, error)
	ListForEvent(ctx context.Context, hostID, eventID uuid.UUID) ([]entity.EventInvitation, error)
}

type invitationService struct {
	db          *gorm.DB
	repo        invRepo.InvitationRepository
	eventRepo   eventRepo.EventRepository
	userRepo    userRepo.UserRepository
	engagement  engagement.EngagementService
	notifier    notifService.Notifier
	redisClient *redis.Client
	rateLimit   time.Duration
	now         func() time.Time
}

func NewInvitationService(
	db *gorm.DB,
	repo invRepo.InvitationRepository,
	eventRepo eventRepo.EventRepository,
	userRepo userRepo.UserRepository,
	engagement engagement.EngagementService,
	notifier notifService.Notifier,
	redisClient *redis.Client,
	opts Options,
) InvitationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &invitationService{
		db:          db,
		repo:        repo,
		eventRepo:   eventRepo,
		userRepo:    userRepo,
		engagement:  engagement,
		notifier:    notifier,
		redisClient: redisClient,
		rateLimit:   opts.RateLimit,
		now:         opts.Now,
	}
}

func (s *invitationService) BulkInvite(ctx context.Context, hostID, eventID uuid.UUID, inviteeIDs []uuid.UUID, message string) (*BulkInviteResult, error) {
	event, err := s.AuthorizeHost(ctx, hostID, eventID)
	if err != nil {
		return nil, err
	}

	targets := normalizeInvitees(hostID, inviteeIDs)
	if len(targets) == 0 {
		return nil, apperror.New(http.StatusBadRequest, "no users to invite", apperror.ErrBadRequest)
	}

	existing, err := s.userRepo.FindExistingIDs(ctx, targets)
	if err != nil {
		return nil, fmt.Errorf("check invitees: %w", err)
	}
	if missing := difference(targets, existing); len(missing) > 0 {
		return nil, apperror.New(http.StatusBadRequest,
			fmt.Sprintf("unknown users: %s", joinIDs(missing)), apperror.ErrBadRequest)
	}

	// The cooldown is armed only after validation passes.
	if err := ratelimiter.Enforce(ctx, s.redisClient, hostID, ratelimiter.ScopeBulkInvite, s.rateLimit); err != nil {
		return nil, err
	}

	message = strings.TrimSpace(message)
	result := &BulkInviteResult{Created: []uuid.UUID{}}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		events := s.eventRepo.WithTx(tx)
		invitations := s.repo.WithTx(tx)

		// Serializes concurrent bulk invites for the same event.
		if _, err := events.FindByIDForUpdate(ctx, eventID); err != nil {
			return fmt.Errorf("lock event: %w", err)
		}

		invited, err := invitations.FindInvitedIDs(ctx, eventID, targets)
		if err != nil {
			return fmt.Errorf("load existing invitations: %w", err)
		}

		fresh := difference(targets, invited)
		result.Skipped = len(targets) - len(fresh)
		if len(fresh) == 0 {
			return apperror.New(http.StatusConflict, "all users already invited", apperror.ErrConflict)
		}

		now := s.now()
		batch := make([]*entity.EventInvitation, 0, len(fresh))
		for _, inviteeID := range fresh {
			batch = append(batch, &entity.EventInvitation{
				EventID:         eventID,
				InviterID:       hostID,
				InviteeID:       inviteeID,
				Status:          entity.InvitationPending,
				PersonalMessage: message,
			})
		}
		if err := invitations.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("create invitations: %w", err)
		}

		for _, inviteeID := range fresh {
			if err := invitations.UpsertHistory(ctx, hostID, inviteeID, eventID, now); err != nil {
				return fmt.Errorf("update invitee history: %w", err)
			}
		}

		if _, err := events.UpdateStatusIf(ctx, eventID, entity.EventDraft, entity.EventActive); err != nil {
			return fmt.Errorf("activate event: %w", err)
		}

		result.Created = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.InvitationsCreated.Add(float64(len(result.Created)))
	metrics.InvitationsSkipped.Add(float64(result.Skipped))

	for _, inviteeID := range result.Created {
		s.notify(inviteeID, "You're invited", fmt.Sprintf("You have been invited to %s", event.Title), map[string]interface{}{
			"type":     "invitation",
			"event_id": eventID.String(),
			"host_id":  hostID.String(),
		})
	}

	return result, nil
}

func (s *invitationService) Respond(ctx context.Context, userID, invitationID uuid.UUID, status entity.InvitationStatus) (*entity.EventInvitation, error) {
	if status != entity.InvitationAccepted && status != entity.InvitationRejected {
		return nil, apperror.Validation("status must be one of [accepted rejected]")
	}

	var (
		invitation *entity.EventInvitation
		changed    bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invitations := s.repo.WithTx(tx)

		inv, err := invitations.FindByIDForUpdate(ctx, invitationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(http.StatusNotFound, "invitation not found", apperror.ErrNotFound)
			}
			return err
		}
		if inv.InviteeID != userID {
			return apperror.New(http.StatusForbidden, "only the invitee can respond to this invitation", apperror.ErrForbidden)
		}

		switch inv.Status {
		case status:
			invitation = inv
			return nil
		case entity.InvitationPending:
		default:
			return apperror.New(http.StatusConflict,
				fmt.Sprintf("invitation already %s", inv.Status), apperror.ErrConflict)
		}

		now := s.now()
		if err := invitations.UpdateResponse(ctx, inv.ID, status, now); err != nil {
			return fmt.Errorf("update invitation: %w", err)
		}
		inv.Status = status
		inv.RespondedAt = &now

		if status == entity.InvitationAccepted {
			if err := s.eventRepo.WithTx(tx).AddAttendee(ctx, inv.EventID, userID, now); err != nil {
				return fmt.Errorf("add attendee: %w", err)
			}
			_, err := s.engagement.Record(ctx, tx, userID, engagement.ActionEventJoin, map[string]interface{}{
				"event_id":      inv.EventID.String(),
				"invitation_id": inv.ID.String(),
			})
			if err != nil {
				return err
			}
		}

		invitation = inv
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notify(invitation.InviterID, "Invitation "+string(invitation.Status), "Someone answered your invitation.", map[string]interface{}{
			"type":          "invitation_response",
			"event_id":      invitation.EventID.String(),
			"invitation_id": invitation.ID.String(),
			"user_id":       userID.String(),
			"status":        string(invitation.Status),
		})
	}

	return invitation, nil
}

func (s *invitationService) ListReceived(ctx context.Context, userID uuid.UUID, status entity.InvitationStatus, page, limit int) ([]entity.EventInvitation, int64, error) {
	switch status {
	case "", entity.InvitationPending, entity.InvitationAccepted, entity.InvitationRejected:
	default:
		return nil, 0, apperror.Validation("status must be one of [pending accepted rejected]")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListReceived(ctx, userID, status, limit, (page-1)*limit)
}

func (s *invitationService) ListForEvent(ctx context.Context, hostID, eventID uuid.UUID) ([]entity.EventInvitation, error) {
	if _, err := s.AuthorizeHost(ctx, hostID, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListByEvent(ctx, eventID)
}

func (s *invitationService) AuthorizeHost(ctx context.Context, hostID, eventID uuid.UUID) (*entity.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "event not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	if event.HostID != hostID {
		return nil, apperror.New(http.StatusForbidden, "only the host can manage invitations for this event", apperror.ErrForbidden)
	}
	return event, nil
}

func (s *invitationService) notify(userID uuid.UUID, title, body string, metadata map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(notifService.Message{
		UserID:   userID,
		Title:    title,
		Body:     body,
		Metadata: metadata,
	})
}

// normalizeInvitees drops the host and duplicates, keeping first-seen order.
func normalizeInvitees(hostID uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == hostID || id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// difference returns the ids in all that are not in exclude, preserving order.
func difference(all, exclude []uuid.UUID) []uuid.UUID {
	skip := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(all))
	for _, id := range all {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
