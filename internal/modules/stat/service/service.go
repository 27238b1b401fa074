package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	connRepo "github.com/himTresor1/celia-sub001/internal/modules/connection/repository"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	invRepo "github.com/himTresor1/celia-sub001/internal/modules/invitation/repository"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
)

type UserStats struct {
	EventsCreated       int64 `json:"events_created"`
	InvitationsReceived int64 `json:"invitations_received"`
	FriendsCount        int64 `json:"friends_count"`
	ReputationScore     int   `json:"reputation_score"`
	StreakDays          int   `json:"streak_days"`
	EngagementPoints    int   `json:"engagement_points"`
}

type StatService interface {
	// GetUserStats reads cached columns plus live counts. It never recomputes the score.
	GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type statService struct {
	userRepo  userRepo.UserRepository
	eventRepo eventRepo.EventRepository
	invRepo   invRepo.InvitationRepository
	connRepo  connRepo.ConnectionRepository
}

func NewStatService(userRepo userRepo.UserRepository, eventRepo eventRepo.EventRepository, invRepo invRepo.InvitationRepository, connRepo connRepo.ConnectionRepository) StatService {
	return &statService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
		invRepo:   invRepo,
		connRepo:  connRepo,
	}
}

func (s *statService) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "user not found", apperror.ErrNotFound)
		}
		return nil, err
	}

	stats := &UserStats{
		ReputationScore:  user.ReputationScore,
		StreakDays:       user.StreakDays,
		EngagementPoints: user.EngagementPoints,
	}

	if stats.EventsCreated, err = s.eventRepo.CountByHost(ctx, userID); err != nil {
		return nil, err
	}
	if stats.InvitationsReceived, err = s.invRepo.CountReceived(ctx, userID); err != nil {
		return nil, err
	}
	if stats.FriendsCount, err = s.connRepo.CountActive(ctx, userID); err != nil {
		return nil, err
	}

	return stats, nil
}
