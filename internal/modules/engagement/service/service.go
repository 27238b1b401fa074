package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/internal/modules/engagement/repository"
	reputation "github.com/himTresor1/celia-sub001/internal/modules/reputation/service"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
	"github.com/himTresor1/celia-sub001/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// StreakResult describes what a daily activity touch changed.
type StreakResult struct {
	StreakDays int                   `json:"streak_days"`
	Changed    bool                  `json:"changed"`
	Awarded    *entity.EngagementLog `json:"awarded"`
}

type EngagementService interface {
	// Record appends a ledger entry, bumps the cached total and recomputes the
	// reputation score, all through tx. The caller owns the transaction.
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action string, metadata map[string]interface{}) (*entity.EngagementLog, error)
	TouchDailyActivity(ctx context.Context, userID uuid.UUID) (*StreakResult, error)
	History(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.EngagementLog, int64, error)
	// Reconcile resets the cached total to the ledger sum and returns it.
	Reconcile(ctx context.Context, userID uuid.UUID) (int, error)
}

type engagementService struct {
	db         *gorm.DB
	repo       repository.EngagementRepository
	userRepo   userRepo.UserRepository
	reputation reputation.ReputationService
	location   *time.Location
	now        func() time.Time
}

// NewEngagementService builds the ledger. location anchors the calendar day used
// for streaks; nil means UTC. now defaults to time.Now.
func NewEngagementService(db *gorm.DB, repo repository.EngagementRepository, userRepo userRepo.UserRepository, reputation reputation.ReputationService, location *time.Location, now func() time.Time) EngagementService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &engagementService{
		db:         db,
		repo:       repo,
		userRepo:   userRepo,
		reputation: reputation,
		location:   location,
		now:        now,
	}
}

func (s *engagementService) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action string, metadata map[string]interface{}) (*entity.EngagementLog, error) {
	points, ok := PointsFor(action)
	if !ok {
		return nil, fmt.Errorf("unknown engagement action %q: %w", action, apperror.ErrBadRequest)
	}
	if tx == nil {
		tx = s.db
	}

	entry := &entity.EngagementLog{
		UserID:       userID,
		ActionType:   action,
		PointsEarned: points,
		CreatedAt:    s.now(),
	}
	if len(metadata) > 0 {
		entry.Metadata = datatypes.JSONMap(metadata)
	}

	if err := s.repo.WithTx(tx).Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append engagement log: %w", err)
	}
	if err := s.userRepo.WithTx(tx).IncrementEngagementPoints(ctx, userID, points); err != nil {
		return nil, fmt.Errorf("increment engagement points: %w", err)
	}
	if _, err := s.reputation.Recompute(ctx, tx, userID); err != nil {
		return nil, err
	}

	metrics.EngagementPoints.WithLabelValues(action).Add(float64(points))
	return entry, nil
}

func (s *engagementService) TouchDailyActivity(ctx context.Context, userID uuid.UUID) (*StreakResult, error) {
	today := CivilDate(s.now(), s.location)
	result := &StreakResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		user, err := users.FindByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
			}
			return err
		}

		streak := 1
		if user.LastActiveDate != nil {
			last := CivilDate(*user.LastActiveDate, time.UTC)
			switch {
			case last.Equal(today):
				result.StreakDays = user.StreakDays
				return nil
			case last.AddDate(0, 0, 1).Equal(today):
				streak = user.StreakDays + 1
			}
		}

		if err := users.UpdateStreak(ctx, userID, streak, today); err != nil {
			return fmt.Errorf("update streak: %w", err)
		}
		result.StreakDays = streak
		result.Changed = true

		action := streakAction(streak)
		if isOneTimeBonus(action) {
			earned, err := s.repo.WithTx(tx).CountByAction(ctx, userID, action)
			if err != nil {
				return fmt.Errorf("check streak bonus: %w", err)
			}
			if earned > 0 {
				action = ActionAppOpen
			}
		}
		if action == "" {
			_, err := s.reputation.Recompute(ctx, tx, userID)
			return err
		}

		entry, err := s.Record(ctx, tx, userID, action, map[string]interface{}{
			"streak_days": streak,
			"date":        today.Format(time.DateOnly),
		})
		if err != nil {
			return err
		}
		result.Awarded = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *engagementService) History(ctx context.Context, userID uuid.UUID, page, limit int) ([]entity.EngagementLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.repo.ListByUser(ctx, userID, limit, (page-1)*limit)
}

func (s *engagementService) Reconcile(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)
		if _, err := users.FindByIDForUpdate(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user not found: %w", apperror.ErrNotFound)
			}
			return err
		}

		sum, err := s.repo.WithTx(tx).SumByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("sum engagement ledger: %w", err)
		}
		if err := users.SetEngagementPoints(ctx, userID, sum); err != nil {
			return err
		}
		total = sum

		_, err = s.reputation.Recompute(ctx, tx, userID)
		return err
	})
	return total, err
}

// CivilDate returns midnight UTC of the calendar date t falls on in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
