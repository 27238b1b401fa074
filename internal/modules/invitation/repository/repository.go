package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/pkg/database"
)

type InvitationRepository interface {
	WithTx(tx *gorm.DB) InvitationRepository

	// FindInvitedIDs returns which of inviteeIDs already hold an invitation to eventID.
	FindInvitedIDs(ctx context.Context, eventID uuid.UUID, inviteeIDs []uuid.UUID) ([]uuid.UUID, error)
	CreateBatch(ctx context.Context, invitations []*entity.EventInvitation) error
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.EventInvitation, error)
	UpdateResponse(ctx context.Context, id uuid.UUID, status entity.InvitationStatus, respondedAt time.Time) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.EventInvitation, error)
	ListReceived(ctx context.Context, inviteeID uuid.UUID, status entity.InvitationStatus, limit, offset int) ([]entity.EventInvitation, int64, error)
	CountReceived(ctx context.Context, inviteeID uuid.UUID) (int64, error)

	// UpsertHistory records one more invitation from host to invitee for eventID.
	UpsertHistory(ctx context.Context, hostID, inviteeID, eventID uuid.UUID, now time.Time) error
	FindHistory(ctx context.Context, hostID, inviteeID uuid.UUID) (*entity.InviteeHistory, error)
}

type invitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

func (r *invitationRepository) WithTx(tx *gorm.DB) InvitationRepository {
	return &invitationRepository{db: tx}
}

func (r *invitationRepository) FindInvitedIDs(ctx context.Context, eventID uuid.UUID, inviteeIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(inviteeIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&entity.EventInvitation{}).
		Where("event_id = ? AND invitee_id IN ?", eventID, inviteeIDs).
		Pluck("invitee_id", &ids).Error
	return ids, err
}

func (r *invitationRepository) CreateBatch(ctx context.Context, invitations []*entity.EventInvitation) error {
	if len(invitations) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&invitations).Error
}

func (r *invitationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.EventInvitation, error) {
	var inv entity.EventInvitation
	if err := database.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *invitationRepository) UpdateResponse(ctx context.Context, id uuid.UUID, status entity.InvitationStatus, respondedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.EventInvitation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": respondedAt,
		}).Error
}

func (r *invitationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]entity.EventInvitation, error) {
	var invitations []entity.EventInvitation
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&invitations).Error
	return invitations, err
}

func (r *invitationRepository) ListReceived(ctx context.Context, inviteeID uuid.UUID, status entity.InvitationStatus, limit, offset int) ([]entity.EventInvitation, int64, error) {
	var (
		invitations []entity.EventInvitation
		total       int64
	)

	query := r.db.WithContext(ctx).Model(&entity.EventInvitation{}).Where("invitee_id = ?", inviteeID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&invitations).Error
	return invitations, total, err
}

func (r *invitationRepository) CountReceived(ctx context.Context, inviteeID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.EventInvitation{}).Where("invitee_id = ?", inviteeID).Count(&count).Error
	return count, err
}

func (r *invitationRepository) UpsertHistory(ctx context.Context, hostID, inviteeID, eventID uuid.UUID, now time.Time) error {
	seed := &entity.InviteeHistory{
		HostID:          hostID,
		InviteeID:       inviteeID,
		FirstInvitedAt:  now,
		LastInvitedAt:   now,
		EventsInvitedTo: datatypes.JSONSlice[uuid.UUID]{},
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(seed).Error; err != nil {
		return err
	}

	var history entity.InviteeHistory
	err := database.ForUpdate(r.db.WithContext(ctx)).
		Where("host_id = ? AND invitee_id = ?", hostID, inviteeID).
		First(&history).Error
	if err != nil {
		return err
	}

	events := append(datatypes.JSONSlice[uuid.UUID]{}, history.EventsInvitedTo...)
	events = append(events, eventID)

	return r.db.WithContext(ctx).
		Model(&entity.InviteeHistory{}).
		Where("host_id = ? AND invitee_id = ?", hostID, inviteeID).
		Updates(map[string]interface{}{
			"total_invitations": history.TotalInvitations + 1,
			"last_invited_at":   now,
			"events_invited_to": events,
		}).Error
}

func (r *invitationRepository) FindHistory(ctx context.Context, hostID, inviteeID uuid.UUID) (*entity.InviteeHistory, error) {
	var history entity.InviteeHistory
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND invitee_id = ?", hostID, inviteeID).
		First(&history).Error
	if err != nil {
		return nil, err
	}
	return &history, nil
}
