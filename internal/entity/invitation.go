package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

// EventInvitation is unique per (event, invitee).
type EventInvitation struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	EventID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_invitation_event_invitee,priority:1" json:"event_id"`
	InviterID       uuid.UUID        `gorm:"type:uuid;not null" json:"inviter_id"`
	InviteeID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_invitation_event_invitee,priority:2;index" json:"invitee_id"`
	Status          InvitationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PersonalMessage string           `gorm:"type:text" json:"personal_message,omitempty"`
	RespondedAt     *time.Time       `json:"responded_at,omitempty"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *EventInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InviteeHistory rolls up how often a host has invited the same person.
type InviteeHistory struct {
	HostID           uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"host_id"`
	InviteeID        uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"invitee_id"`
	FirstInvitedAt   time.Time                      `gorm:"not null" json:"first_invited_at"`
	LastInvitedAt    time.Time                      `gorm:"not null" json:"last_invited_at"`
	TotalInvitations int                            `gorm:"not null;default:0" json:"total_invitations"`
	EventsInvitedTo  datatypes.JSONSlice[uuid.UUID] `json:"events_invited_to"`
}
