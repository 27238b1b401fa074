package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/modules/reputation/repository"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
)

type ReputationService interface {
	// Recompute reloads the user's signals through tx and overwrites the cached score.
	// A nil tx runs on the service's own handle.
	Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	// RecomputeAll refreshes every user's cached score and returns how many were updated.
	RecomputeAll(ctx context.Context) (int, error)
}

type reputationService struct {
	db       *gorm.DB
	repo     repository.ReputationRepository
	userRepo userRepo.UserRepository
}

func NewReputationService(db *gorm.DB, repo repository.ReputationRepository, userRepo userRepo.UserRepository) ReputationService {
	return &reputationService{
		db:       db,
		repo:     repo,
		userRepo: userRepo,
	}
}

func (s *reputationService) Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	if tx == nil {
		tx = s.db
	}
	users := s.userRepo.WithTx(tx)

	user, err := users.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load user %s: %w", userID, err)
	}

	counts, err := s.repo.WithTx(tx).LoadCounts(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("load reputation signals: %w", err)
	}

	score := Calculate(user, counts)
	if score == user.ReputationScore {
		return score, nil
	}

	if err := users.UpdateReputationScore(ctx, userID, score); err != nil {
		return 0, fmt.Errorf("store reputation score: %w", err)
	}
	return score, nil
}

func (s *reputationService) RecomputeAll(ctx context.Context) (int, error) {
	ids, err := s.userRepo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.Recompute(ctx, tx, id)
			return err
		})
		if err != nil {
			slog.Error("reputation recompute failed", "user_id", id, "error", err)
			continue
		}
		updated++
	}
	return updated, nil
}
