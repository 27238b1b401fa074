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

type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	Create(ctx context.Context, event *entity.Event) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	// UpdateStatusIf moves the event to status only when it is currently in from.
	// It reports whether a row changed.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to entity.EventStatus) (bool, error)
	CountByHost(ctx context.Context, hostID uuid.UUID) (int64, error)
	AddAttendee(ctx context.Context, eventID, userID uuid.UUID, joinedAt time.Time) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &eventRepository{db: tx}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var event entity.Event
	if err := database.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) UpdateStatusIf(ctx context.Context, id uuid.UUID, from, to entity.EventStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.Event{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected > 0, result.Error
}

func (r *eventRepository) CountByHost(ctx context.Context, hostID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Event{}).Where("host_id = ?", hostID).Count(&count).Error
	return count, err
}

func (r *eventRepository) AddAttendee(ctx context.Context, eventID, userID uuid.UUID, joinedAt time.Time) error {
	attendee := &entity.EventAttendee{EventID: eventID, UserID: userID, JoinedAt: joinedAt}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(attendee).Error
}
