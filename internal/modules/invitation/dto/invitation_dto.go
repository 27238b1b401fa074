package dto

import "github.com/google/uuid"

type BulkInviteRequest struct {
	InviteeIDs []uuid.UUID `json:"invitee_ids" binding:"required,min=1,max=200"`
	Message    string      `json:"message" binding:"max=500"`
}

type RespondRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected"`
}
