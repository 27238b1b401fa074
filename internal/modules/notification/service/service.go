package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/himTresor1/celia-sub001/internal/entity"
	notifRepo "github.com/himTresor1/celia-sub001/internal/modules/notification/repository"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
)

type NotificationService interface {
	GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error)
	MarkAsRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string) (*entity.PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
	VAPIDPublicKey() string
}

type notificationService struct {
	repo notifRepo.NotificationRepository
	keys VAPIDKeys
}

func NewNotificationService(repo notifRepo.NotificationRepository, keys VAPIDKeys) NotificationService {
	return &notificationService{
		repo: repo,
		keys: keys,
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	rows, err := s.repo.MarkAsRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *notificationService) Subscribe(ctx context.Context, userID uuid.UUID, endpoint, p256dh, auth string) (*entity.PushSubscription, error) {
	sub := &entity.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   p256dh,
		Auth:     auth,
	}
	if err := s.repo.ReplaceSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	rows, err := s.repo.DeleteSubscription(ctx, userID, endpoint)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("subscription not found: %w", apperror.ErrNotFound)
	}
	return nil
}

func (s *notificationService) VAPIDPublicKey() string {
	return s.keys.PublicKey
}
