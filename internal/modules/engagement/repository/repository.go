package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
)

// EngagementRepository only appends and reads. Ledger rows are never changed.
type EngagementRepository interface {
	WithTx(tx *gorm.DB) EngagementRepository
	Append(ctx context.Context, entry *entity.EngagementLog) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.EngagementLog, int64, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
	CountByAction(ctx context.Context, userID uuid.UUID, action string) (int64, error)
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) WithTx(tx *gorm.DB) EngagementRepository {
	return &engagementRepository{db: tx}
}

func (r *engagementRepository) Append(ctx context.Context, entry *entity.EngagementLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *engagementRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.EngagementLog, int64, error) {
	var (
		logs  []entity.EngagementLog
		total int64
	)

	query := r.db.WithContext(ctx).Model(&entity.EngagementLog{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error
	return logs, total, err
}

func (r *engagementRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&entity.EngagementLog{}).
		Select("COALESCE(SUM(points_earned), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	return total, err
}

func (r *engagementRepository) CountByAction(ctx context.Context, userID uuid.UUID, action string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.EngagementLog{}).
		Where("user_id = ? AND action_type = ?", userID, action).
		Count(&count).Error
	return count, err
}
