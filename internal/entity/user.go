package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID                 uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Username           string                      `gorm:"size:50;uniqueIndex;not null" json:"username"`
	FullName           string                      `gorm:"size:100" json:"full_name"`
	Bio                string                      `gorm:"type:text" json:"bio"`
	College            string                      `gorm:"size:150" json:"college"`
	Major              string                      `gorm:"size:150" json:"major"`
	Interests          datatypes.JSONSlice[string] `json:"interests"`
	Photos             datatypes.JSONSlice[string] `json:"photos"`
	PreferredLocations datatypes.JSONSlice[string] `json:"preferred_locations"`

	// Cached, derived columns. Only the engagement ledger and the reputation
	// engine write them.
	ReputationScore  int        `gorm:"not null;default:0" json:"reputation_score"`
	EngagementPoints int        `gorm:"not null;default:0" json:"engagement_points"`
	StreakDays       int        `gorm:"not null;default:0" json:"streak_days"`
	LastActiveDate   *time.Time `gorm:"type:date" json:"last_active_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
