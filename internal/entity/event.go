package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventActive    EventStatus = "active"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	HostID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"host_id"`
	Host        *User       `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE" json:"host,omitempty"`
	Title       string      `gorm:"size:200;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Location    string      `gorm:"size:200" json:"location"`
	StartsAt    *time.Time  `json:"starts_at,omitempty"`
	Status      EventStatus `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type EventAttendee struct {
	EventID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	JoinedAt time.Time `gorm:"not null" json:"joined_at"`
}
