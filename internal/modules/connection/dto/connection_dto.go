package dto

import "github.com/google/uuid"

type PulseRequest struct {
	ToUserID uuid.UUID `json:"to_user_id" binding:"required"`
	// FromUserID is optional; when present it must match the caller.
	FromUserID *uuid.UUID `json:"from_user_id"`
}

type ConnectionStatusResponse struct {
	Connected bool   `json:"connected"`
	State     string `json:"state"`
}
