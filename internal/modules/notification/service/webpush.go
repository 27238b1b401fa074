package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"

	notifRepo "github.com/himTresor1/celia-sub001/internal/modules/notification/repository"
)

type VAPIDKeys struct {
	PublicKey  string
	PrivateKey string
	Subject    string
}

func (k VAPIDKeys) Enabled() bool {
	return k.PublicKey != "" && k.PrivateKey != ""
}

// WebPushSender delivers notifications to every stored browser subscription of a user.
type WebPushSender struct {
	repo notifRepo.NotificationRepository
	keys VAPIDKeys
	send func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)
}

func NewWebPushSender(repo notifRepo.NotificationRepository, keys VAPIDKeys) *WebPushSender {
	return &WebPushSender{
		repo: repo,
		keys: keys,
		send: webpush.SendNotification,
	}
}

func (s *WebPushSender) Name() string {
	return "webpush"
}

func (s *WebPushSender) Notify(ctx context.Context, userID uuid.UUID, title, body string, metadata map[string]interface{}) error {
	subs, err := s.repo.ListSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title":   title,
		"body":    body,
		"data":    metadata,
		"urgency": "high",
	})
	if err != nil {
		return err
	}

	var failed int
	for _, sub := range subs {
		resp, err := s.send(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: strings.TrimSpace(sub.P256DH),
				Auth:   strings.TrimSpace(sub.Auth),
			},
		}, &webpush.Options{
			Subscriber:      s.keys.Subject,
			VAPIDPublicKey:  s.keys.PublicKey,
			VAPIDPrivateKey: s.keys.PrivateKey,
			TTL:             30,
		})
		if err != nil {
			failed++
			slog.Warn("web push failed", "user_id", userID, "subscription_id", sub.ID, "error", err)
			continue
		}
		resp.Body.Close()

		// The push service reports subscriptions that no longer exist.
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if err := s.repo.DeleteSubscriptionByID(ctx, sub.ID); err != nil {
				slog.Warn("failed to delete stale push subscription", "subscription_id", sub.ID, "error", err)
			}
		}
	}

	if failed == len(subs) {
		return fmt.Errorf("web push failed for all %d subscriptions", failed)
	}
	return nil
}
