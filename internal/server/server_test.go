package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/bootstrap"
	"github.com/himTresor1/celia-sub001/internal/config"
	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/internal/server"
	"github.com/himTresor1/celia-sub001/internal/testutil"
)

const testSecret = "server-test-secret"

type apiClient struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) (*apiClient, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := &config.Config{
		AppEnv:          "test",
		Port:            "0",
		AllowedOrigins:  "http://localhost:3000",
		JWTSecret:       testSecret,
		StreakLocation:  time.UTC,
		PulseWindow:     24 * time.Hour,
		NotifyWorkers:   1,
		NotifyQueueSize: 64,
	}
	services := bootstrap.NewServices(cfg, db, nil)
	srv := server.NewServer(cfg, db, nil, services, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	return &apiClient{t: t, handler: srv.Handler()}, db
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (a *apiClient) do(method, path string, as uuid.UUID, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(a.t, as))
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	api, _ := newAPI(t)

	rec := api.do(http.MethodGet, "/healthz", uuid.Nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["database"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api, _ := newAPI(t)

	rec := api.do(http.MethodGet, "/api/connections", uuid.Nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPulseFlowOverHTTP(t *testing.T) {
	api, db := newAPI(t)
	alice := testutil.CreateUser(t, db)
	bob := testutil.CreateUser(t, db)

	rec := api.do(http.MethodPost, "/api/connections/pulse", alice.ID, map[string]any{"to_user_id": bob.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first struct {
		Status    string     `json:"status"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	decode(t, rec, &first)
	assert.Equal(t, string(entity.ConnectionPending), first.Status)
	assert.NotNil(t, first.ExpiresAt)

	rec = api.do(http.MethodGet, "/api/connections/"+bob.ID.String(), alice.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Connected bool   `json:"connected"`
		State     string `json:"state"`
	}
	decode(t, rec, &status)
	assert.False(t, status.Connected)
	assert.Equal(t, "pending", status.State)

	rec = api.do(http.MethodPost, "/api/connections/pulse", bob.ID, map[string]any{"to_user_id": alice.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var second struct {
		Status string `json:"status"`
	}
	decode(t, rec, &second)
	assert.Equal(t, string(entity.ConnectionActive), second.Status)

	rec = api.do(http.MethodGet, "/api/users/me/stats", alice.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		FriendsCount     int64 `json:"friends_count"`
		EngagementPoints int   `json:"engagement_points"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, int64(1), stats.FriendsCount)
	assert.Equal(t, 50, stats.EngagementPoints)

	rec = api.do(http.MethodGet, "/api/connections", bob.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var friends struct {
		Data []struct {
			UserID uuid.UUID `json:"user_id"`
		} `json:"data"`
	}
	decode(t, rec, &friends)
	require.Len(t, friends.Data, 1)
	assert.Equal(t, alice.ID, friends.Data[0].UserID)

	rec = api.do(http.MethodDelete, "/api/connections/"+alice.ID.String(), bob.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPulseRejectsForeignSender(t *testing.T) {
	api, db := newAPI(t)
	alice := testutil.CreateUser(t, db)
	bob := testutil.CreateUser(t, db)

	rec := api.do(http.MethodPost, "/api/connections/pulse", alice.ID, map[string]any{
		"from_user_id": bob.ID,
		"to_user_id":   alice.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, "/api/connections/pulse", alice.ID, map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestInvitationFlowOverHTTP(t *testing.T) {
	api, db := newAPI(t)
	host := testutil.CreateUser(t, db)
	guest := testutil.CreateUser(t, db)

	rec := api.do(http.MethodPost, "/api/events", host.ID, map[string]any{"title": "Board games night"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var event struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	decode(t, rec, &event)
	assert.Equal(t, string(entity.EventDraft), event.Status)

	path := "/api/events/" + event.ID.String() + "/invitations/bulk"
	rec = api.do(http.MethodPost, path, guest.ID, map[string]any{"invitee_ids": []uuid.UUID{host.ID}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPost, path, host.ID, map[string]any{"invitee_ids": []uuid.UUID{guest.ID, guest.ID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Created []uuid.UUID `json:"created"`
		Skipped int         `json:"skipped"`
	}
	decode(t, rec, &result)
	assert.Len(t, result.Created, 1)
	assert.Equal(t, 0, result.Skipped)

	rec = api.do(http.MethodPost, path, host.ID, map[string]any{"invitee_ids": []uuid.UUID{guest.ID}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodGet, "/api/events/"+event.ID.String(), guest.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &event)
	assert.Equal(t, string(entity.EventActive), event.Status)

	rec = api.do(http.MethodGet, "/api/invitations?status=pending", guest.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var received struct {
		Data []struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
		Total int64 `json:"total"`
	}
	decode(t, rec, &received)
	require.Len(t, received.Data, 1)
	assert.Equal(t, int64(1), received.Total)

	rec = api.do(http.MethodPatch, "/api/invitations/"+received.Data[0].ID.String(), guest.ID, map[string]any{"status": "maybe"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPatch, "/api/invitations/"+received.Data[0].ID.String(), guest.ID, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/users/me/engagement", guest.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Total int64 `json:"total"`
	}
	decode(t, rec, &history)
	assert.Equal(t, int64(1), history.Total)
}

func TestActivityEndpoint(t *testing.T) {
	api, db := newAPI(t)
	user := testutil.CreateUser(t, db)

	rec := api.do(http.MethodPost, "/api/users/me/activity", user.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		StreakDays int `json:"streak_days"`
	}
	decode(t, rec, &result)
	assert.Equal(t, 1, result.StreakDays)
}

func TestVAPIDKeyUnconfigured(t *testing.T) {
	api, _ := newAPI(t)

	rec := api.do(http.MethodGet, "/api/push/vapid-public-key", uuid.Nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkInviteChecksHostBeforeBody(t *testing.T) {
	api, db := newAPI(t)
	host := testutil.CreateUser(t, db)
	stranger := testutil.CreateUser(t, db)
	event := testutil.CreateEvent(t, db, host.ID, entity.EventDraft)
	path := "/api/events/" + event.ID.String() + "/invitations/bulk"

	bodies := []any{
		map[string]any{"invitee_ids": []string{}},
		map[string]any{"invitee_ids": []string{"not-a-uuid"}},
		map[string]any{},
	}
	for _, body := range bodies {
		rec := api.do(http.MethodPost, path, stranger.ID, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	}

	rec := api.do(http.MethodPost, path, host.ID, map[string]any{"invitee_ids": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = api.do(http.MethodPost, "/api/events/"+uuid.NewString()+"/invitations/bulk", stranger.ID, map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
