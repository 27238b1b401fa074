package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himTresor1/celia-sub001/internal/entity"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	"github.com/himTresor1/celia-sub001/internal/modules/event/service"
	"github.com/himTresor1/celia-sub001/internal/testutil"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
)

func TestCreateAndGet(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewEventService(eventRepo.NewEventRepository(db))
	ctx := context.Background()
	host := testutil.CreateUser(t, db)

	event, err := svc.Create(ctx, host.ID, service.CreateEventInput{
		Title:    "  Board game night ",
		Location: "Dorm B lounge",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.EventDraft, event.Status)
	assert.Equal(t, "Board game night", event.Title)
	assert.Equal(t, host.ID, event.HostID)

	got, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, "Dorm B lounge", got.Location)
}

func TestCreate_RequiresTitle(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewEventService(eventRepo.NewEventRepository(db))

	_, err := svc.Create(context.Background(), testutil.CreateUser(t, db).ID, service.CreateEventInput{Title: "   "})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGet_NotFound(t *testing.T) {
	db := testutil.NewDB(t)
	svc := service.NewEventService(eventRepo.NewEventRepository(db))

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
