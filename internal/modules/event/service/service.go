package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
)

type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    *time.Time
}

type EventService interface {
	Create(ctx context.Context, hostID uuid.UUID, input CreateEventInput) (*entity.Event, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Event, error)
}

type eventService struct {
	repo eventRepo.EventRepository
}

func NewEventService(repo eventRepo.EventRepository) EventService {
	return &eventService{repo: repo}
}

// Create stores a new draft event. It becomes active with its first invitations.
func (s *eventService) Create(ctx context.Context, hostID uuid.UUID, input CreateEventInput) (*entity.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}

	event := &entity.Event{
		HostID:      hostID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		Status:      entity.EventDraft,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) Get(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "event not found", apperror.ErrNotFound)
		}
		return nil, err
	}
	return event, nil
}
