package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
)

// Counts are the relational signals the reputation score reads.
type Counts struct {
	Friends             int64
	EventsAttended      int64
	InvitationsReceived int64
	InvitationsAccepted int64
}

type ReputationRepository interface {
	WithTx(tx *gorm.DB) ReputationRepository
	LoadCounts(ctx context.Context, userID uuid.UUID) (Counts, error)
}

type reputationRepository struct {
	db *gorm.DB
}

func NewReputationRepository(db *gorm.DB) ReputationRepository {
	return &reputationRepository{db: db}
}

func (r *reputationRepository) WithTx(tx *gorm.DB) ReputationRepository {
	return &reputationRepository{db: tx}
}

func (r *reputationRepository) LoadCounts(ctx context.Context, userID uuid.UUID) (Counts, error) {
	var c Counts
	db := r.db.WithContext(ctx)

	if err := db.Model(&entity.Connection{}).
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, entity.ConnectionActive).
		Count(&c.Friends).Error; err != nil {
		return c, err
	}

	if err := db.Model(&entity.EventAttendee{}).
		Where("user_id = ?", userID).
		Count(&c.EventsAttended).Error; err != nil {
		return c, err
	}

	if err := db.Model(&entity.EventInvitation{}).
		Where("invitee_id = ?", userID).
		Count(&c.InvitationsReceived).Error; err != nil {
		return c, err
	}

	if err := db.Model(&entity.EventInvitation{}).
		Where("invitee_id = ? AND status = ?", userID, entity.InvitationAccepted).
		Count(&c.InvitationsAccepted).Error; err != nil {
		return c, err
	}

	return c, nil
}
