package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himTresor1/celia-sub001/internal/entity"
	notifRepo "github.com/himTresor1/celia-sub001/internal/modules/notification/repository"
)

type subscriptionStore struct {
	notifRepo.NotificationRepository
	subs    []entity.PushSubscription
	deleted []uuid.UUID
}

func (s *subscriptionStore) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]entity.PushSubscription, error) {
	return s.subs, nil
}

func (s *subscriptionStore) DeleteSubscriptionByID(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func response(code int) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(""))}
}

func TestWebPushSender_RemovesGoneSubscriptions(t *testing.T) {
	live := entity.PushSubscription{ID: uuid.New(), Endpoint: "https://push.example.com/live", P256DH: " key ", Auth: "auth"}
	gone := entity.PushSubscription{ID: uuid.New(), Endpoint: "https://push.example.com/gone", P256DH: "key", Auth: "auth"}
	store := &subscriptionStore{subs: []entity.PushSubscription{live, gone}}

	sender := NewWebPushSender(store, VAPIDKeys{PublicKey: "pub", PrivateKey: "priv", Subject: "mailto:ops@example.com"})

	var endpoints []string
	sender.send = func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		endpoints = append(endpoints, sub.Endpoint)
		assert.Equal(t, "key", sub.Keys.P256dh)
		assert.Equal(t, "pub", opts.VAPIDPublicKey)
		assert.Contains(t, string(payload), `"title":"Invitation"`)
		if sub.Endpoint == gone.Endpoint {
			return response(http.StatusGone), nil
		}
		return response(http.StatusCreated), nil
	}

	err := sender.Notify(context.Background(), uuid.New(), "Invitation", "You are invited", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{live.Endpoint, gone.Endpoint}, endpoints)
	assert.Equal(t, []uuid.UUID{gone.ID}, store.deleted)
}

func TestWebPushSender_AllFailures(t *testing.T) {
	store := &subscriptionStore{subs: []entity.PushSubscription{{ID: uuid.New(), Endpoint: "https://push.example.com/x"}}}
	sender := NewWebPushSender(store, VAPIDKeys{})
	sender.send = func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}

	assert.Error(t, sender.Notify(context.Background(), uuid.New(), "t", "b", nil))
}

func TestWebPushSender_NoSubscriptions(t *testing.T) {
	sender := NewWebPushSender(&subscriptionStore{}, VAPIDKeys{})
	sender.send = func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		t.Fatal("send must not be called")
		return nil, nil
	}

	assert.NoError(t, sender.Notify(context.Background(), uuid.New(), "t", "b", nil))
}

func TestVAPIDKeysEnabled(t *testing.T) {
	assert.False(t, VAPIDKeys{PublicKey: "pub"}.Enabled())
	assert.True(t, VAPIDKeys{PublicKey: "pub", PrivateKey: "priv"}.Enabled())
}
