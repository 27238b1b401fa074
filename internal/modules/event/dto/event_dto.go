package dto

import "time"

type CreateEventRequest struct {
	Title       string     `json:"title" binding:"required,max=200"`
	Description string     `json:"description" binding:"max=5000"`
	Location    string     `json:"location" binding:"max=200"`
	StartsAt    *time.Time `json:"starts_at"`
}
