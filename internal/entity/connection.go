package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConnectionStatus string

const (
	ConnectionPending ConnectionStatus = "pending"
	ConnectionActive  ConnectionStatus = "active"
)

// Connection is one row per unordered pair of users. UserAID is always the
// smaller id of the pair (see CanonicalPair).
type Connection struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserAID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair,priority:1" json:"user_a_id"`
	UserBID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_connection_pair,priority:2;index" json:"user_b_id"`
	PulseSentByA   *time.Time       `json:"pulse_sent_by_a,omitempty"`
	PulseSentByB   *time.Time       `json:"pulse_sent_by_b,omitempty"`
	PulseExpiresAt *time.Time       `gorm:"index" json:"pulse_expires_at,omitempty"`
	Status         ConnectionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	InitiatedBy    uuid.UUID        `gorm:"type:uuid;not null" json:"initiated_by"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Connection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CanonicalPair orders two user ids so both call orders address the same row.
func CanonicalPair(x, y uuid.UUID) (uuid.UUID, uuid.UUID) {
	if y.String() < x.String() {
		return y, x
	}
	return x, y
}

// OtherUser returns the participant that is not userID.
func (c *Connection) OtherUser(userID uuid.UUID) uuid.UUID {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
