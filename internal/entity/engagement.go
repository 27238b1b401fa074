package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EngagementLog is append-only: rows are never updated or deleted.
type EngagementLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	UserID       uuid.UUID         `gorm:"type:uuid;index:idx_engagement_user_date,priority:1;not null" json:"user_id"`
	ActionType   string            `gorm:"size:50;not null" json:"action_type"`
	PointsEarned int               `gorm:"not null" json:"points_earned"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"index:idx_engagement_user_date,priority:2" json:"created_at"`
}
