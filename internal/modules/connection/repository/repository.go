package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/pkg/database"
)

// ConnectionRepository stores one row per unordered pair. Callers pass ids
// already ordered with entity.CanonicalPair.
type ConnectionRepository interface {
	WithTx(tx *gorm.DB) ConnectionRepository
	// EnsurePair inserts an empty pending row for the pair unless one exists.
	EnsurePair(ctx context.Context, userA, userB, initiatedBy uuid.UUID) error
	FindPair(ctx context.Context, userA, userB uuid.UUID) (*entity.Connection, error)
	FindPairForUpdate(ctx context.Context, userA, userB uuid.UUID) (*entity.Connection, error)
	Save(ctx context.Context, conn *entity.Connection) error
	DeletePair(ctx context.Context, userA, userB uuid.UUID) (int64, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]entity.Connection, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) WithTx(tx *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: tx}
}

func (r *connectionRepository) EnsurePair(ctx context.Context, userA, userB, initiatedBy uuid.UUID) error {
	conn := &entity.Connection{
		UserAID:     userA,
		UserBID:     userB,
		Status:      entity.ConnectionPending,
		InitiatedBy: initiatedBy,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_a_id"}, {Name: "user_b_id"}},
			DoNothing: true,
		}).
		Create(conn).Error
}

func (r *connectionRepository) FindPair(ctx context.Context, userA, userB uuid.UUID) (*entity.Connection, error) {
	var conn entity.Connection
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) FindPairForUpdate(ctx context.Context, userA, userB uuid.UUID) (*entity.Connection, error) {
	var conn entity.Connection
	err := database.ForUpdate(r.db.WithContext(ctx)).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		First(&conn).Error
	if err != nil {
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) Save(ctx context.Context, conn *entity.Connection) error {
	return r.db.WithContext(ctx).Save(conn).Error
}

func (r *connectionRepository) DeletePair(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", userA, userB).
		Delete(&entity.Connection{})
	return result.RowsAffected, result.Error
}

func (r *connectionRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]entity.Connection, error) {
	var conns []entity.Connection
	err := r.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, entity.ConnectionActive).
		Order("completed_at DESC").
		Find(&conns).Error
	return conns, err
}

func (r *connectionRepository) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Connection{}).
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, entity.ConnectionActive).
		Count(&count).Error
	return count, err
}

// DeleteExpiredPending removes pending rows whose pulse window has closed.
// Such rows already read as absent, so this only reclaims space.
func (r *connectionRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND pulse_expires_at IS NOT NULL AND pulse_expires_at < ?", entity.ConnectionPending, now).
		Delete(&entity.Connection{})
	return result.RowsAffected, result.Error
}
