package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/entity"
	engRepo "github.com/himTresor1/celia-sub001/internal/modules/engagement/repository"
	engagement "github.com/himTresor1/celia-sub001/internal/modules/engagement/service"
	eventRepo "github.com/himTresor1/celia-sub001/internal/modules/event/repository"
	invRepo "github.com/himTresor1/celia-sub001/internal/modules/invitation/repository"
	"github.com/himTresor1/celia-sub001/internal/modules/invitation/service"
	repRepo "github.com/himTresor1/celia-sub001/internal/modules/reputation/repository"
	reputation "github.com/himTresor1/celia-sub001/internal/modules/reputation/service"
	userRepo "github.com/himTresor1/celia-sub001/internal/modules/user/repository"
	"github.com/himTresor1/celia-sub001/internal/testutil"
	"github.com/himTresor1/celia-sub001/pkg/apperror"
)

type fixture struct {
	db       *gorm.DB
	clock    *testutil.Clock
	notifier *testutil.Notifier
	repo     invRepo.InvitationRepository
	svc      service.InvitationService
	host     uuid.UUID
	event    *entity.Event
}

type fixtureOptions struct {
	wrapRepo  func(invRepo.InvitationRepository) invRepo.InvitationRepository
	redis     *redis.Client
	rateLimit time.Duration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, fixtureOptions{})
}

func newFixtureWith(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	notifier := &testutil.Notifier{}

	users := userRepo.NewUserRepository(db)
	events := eventRepo.NewEventRepository(db)
	invitations := invRepo.NewInvitationRepository(db)
	if opts.wrapRepo != nil {
		invitations = opts.wrapRepo(invitations)
	}
	rep := reputation.NewReputationService(db, repRepo.NewReputationRepository(db), users)
	eng := engagement.NewEngagementService(db, engRepo.NewEngagementRepository(db), users, rep, time.UTC, clock.Now)
	svc := service.NewInvitationService(db, invitations, events, users, eng, notifier, opts.redis, service.Options{
		RateLimit: opts.rateLimit,
		Now:       clock.Now,
	})

	host := testutil.CreateUser(t, db)
	return &fixture{
		db:       db,
		clock:    clock,
		notifier: notifier,
		repo:     invitations,
		svc:      svc,
		host:     host.ID,
		event:    testutil.CreateEvent(t, db, host.ID, entity.EventDraft),
	}
}

func (f *fixture) users(t *testing.T, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = testutil.CreateUser(t, f.db).ID
	}
	return ids
}

func (f *fixture) eventStatus(t *testing.T) entity.EventStatus {
	t.Helper()
	var event entity.Event
	require.NoError(t, f.db.First(&event, "id = ?", f.event.ID).Error)
	return event.Status
}

func TestBulkInvite_DedupesAndSkipsExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.users(t, 3)

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[1]}, "")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	res, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[0], u[1], u[0], u[2], f.host}, "  come along ")
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{u[0], u[2]}, res.Created)
	assert.Equal(t, 1, res.Skipped)

	assert.EqualValues(t, 3, testutil.CountRows(t, f.db, &entity.EventInvitation{}, "event_id = ?", f.event.ID))

	var inv entity.EventInvitation
	require.NoError(t, f.db.First(&inv, "invitee_id = ?", u[0]).Error)
	assert.Equal(t, "come along", inv.PersonalMessage)
	assert.Equal(t, entity.InvitationPending, inv.Status)
	assert.Equal(t, f.host, inv.InviterID)

	assert.Equal(t, []uuid.UUID{u[1], u[0], u[2]}, f.notifier.Recipients())
}

func TestBulkInvite_HostOnlyCheckedFirst(t *testing.T) {
	f := newFixture(t)
	stranger := f.users(t, 1)[0]

	_, err := f.svc.BulkInvite(context.Background(), stranger, f.event.ID, nil, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.BulkInvite(context.Background(), stranger, f.event.ID, []uuid.UUID{uuid.New()}, "")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	assert.Equal(t, entity.EventDraft, f.eventStatus(t))
}

func TestBulkInvite_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	known := f.users(t, 1)[0]

	_, err := f.svc.BulkInvite(ctx, f.host, uuid.New(), []uuid.UUID{known}, "")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{f.host, f.host}, "")
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	unknown := uuid.New()
	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{known, unknown}, "")
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Contains(t, err.Error(), unknown.String())

	assert.Zero(t, testutil.CountRows(t, f.db, &entity.EventInvitation{}, ""))
	assert.Zero(t, testutil.CountRows(t, f.db, &entity.InviteeHistory{}, ""))
	assert.Equal(t, entity.EventDraft, f.eventStatus(t))
}

func TestBulkInvite_AllAlreadyInvited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.users(t, 2)

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, u, "")
	require.NoError(t, err)

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[1], u[0]}, "")
	assert.ErrorIs(t, err, apperror.ErrConflict)

	history, err := f.repo.FindHistory(ctx, f.host, u[0])
	require.NoError(t, err)
	assert.Equal(t, 1, history.TotalInvitations)
}

func TestBulkInvite_DraftBecomesActiveOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.users(t, 2)

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, u[:1], "")
	require.NoError(t, err)
	assert.Equal(t, entity.EventActive, f.eventStatus(t))

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, u[1:], "")
	require.NoError(t, err)
	assert.Equal(t, entity.EventActive, f.eventStatus(t))

	cancelled := testutil.CreateEvent(t, f.db, f.host, entity.EventCancelled)
	_, err = f.svc.BulkInvite(ctx, f.host, cancelled.ID, u, "")
	require.NoError(t, err)

	var reloaded entity.Event
	require.NoError(t, f.db.First(&reloaded, "id = ?", cancelled.ID).Error)
	assert.Equal(t, entity.EventCancelled, reloaded.Status)
}

func TestBulkInvite_MaintainsInviteeHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := f.users(t, 1)[0]
	first := f.clock.Now()

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{guest}, "")
	require.NoError(t, err)

	second := testutil.CreateEvent(t, f.db, f.host, entity.EventDraft)
	f.clock.Advance(48 * time.Hour)
	_, err = f.svc.BulkInvite(ctx, f.host, second.ID, []uuid.UUID{guest}, "")
	require.NoError(t, err)

	history, err := f.repo.FindHistory(ctx, f.host, guest)
	require.NoError(t, err)
	assert.Equal(t, 2, history.TotalInvitations)
	assert.Equal(t, []uuid.UUID{f.event.ID, second.ID}, []uuid.UUID(history.EventsInvitedTo))
	assert.Equal(t, first, history.FirstInvitedAt.UTC())
	assert.Equal(t, first.Add(48*time.Hour), history.LastInvitedAt.UTC())
}

func TestBulkInvite_ConcurrentOverlappingBatches(t *testing.T) {
	f := newFixture(t)
	u := f.users(t, 3)

	var wg sync.WaitGroup
	results := make(chan *service.BulkInviteResult, 2)
	for _, batch := range [][]uuid.UUID{{u[0], u[1]}, {u[1], u[2]}} {
		wg.Add(1)
		go func(ids []uuid.UUID) {
			defer wg.Done()
			res, err := f.svc.BulkInvite(context.Background(), f.host, f.event.ID, ids, "")
			assert.NoError(t, err)
			results <- res
		}(batch)
	}
	wg.Wait()
	close(results)

	created, skipped := 0, 0
	for res := range results {
		if res != nil {
			created += len(res.Created)
			skipped += res.Skipped
		}
	}
	assert.Equal(t, 3, created)
	assert.Equal(t, 1, skipped)
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &entity.EventInvitation{}, "invitee_id = ?", u[1]))

	history, err := f.repo.FindHistory(context.Background(), f.host, u[1])
	require.NoError(t, err)
	assert.Equal(t, 1, history.TotalInvitations)
}

func TestRespond_AcceptJoinsEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := f.users(t, 1)[0]

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{guest}, "")
	require.NoError(t, err)

	invs, _, err := f.svc.ListReceived(ctx, guest, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, invs, 1)

	inv, err := f.svc.Respond(ctx, guest, invs[0].ID, entity.InvitationAccepted)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationAccepted, inv.Status)
	require.NotNil(t, inv.RespondedAt)

	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &entity.EventAttendee{}, "event_id = ? AND user_id = ?", f.event.ID, guest))
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &entity.EngagementLog{}, "user_id = ? AND action_type = ?", guest, engagement.ActionEventJoin))

	user := testutil.ReloadUser(t, f.db, guest)
	assert.Equal(t, engagement.PointsEventJoin, user.EngagementPoints)
	// log10(2)*5 + 1/1*15 + 20/1000*15 = 1.51 + 15 + 0.3
	assert.Equal(t, 17, user.ReputationScore)

	// answering the same way again changes nothing
	_, err = f.svc.Respond(ctx, guest, invs[0].ID, entity.InvitationAccepted)
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &entity.EngagementLog{}, "user_id = ?", guest))

	_, err = f.svc.Respond(ctx, guest, invs[0].ID, entity.InvitationRejected)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	recipients := f.notifier.Recipients()
	assert.Equal(t, []uuid.UUID{guest, f.host}, recipients)
}

func TestRespond_Reject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := f.users(t, 1)[0]

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{guest}, "")
	require.NoError(t, err)
	invs, err := f.svc.ListForEvent(ctx, f.host, f.event.ID)
	require.NoError(t, err)
	require.Len(t, invs, 1)

	inv, err := f.svc.Respond(ctx, guest, invs[0].ID, entity.InvitationRejected)
	require.NoError(t, err)
	assert.Equal(t, entity.InvitationRejected, inv.Status)

	assert.Zero(t, testutil.CountRows(t, f.db, &entity.EventAttendee{}, ""))
	assert.Zero(t, testutil.CountRows(t, f.db, &entity.EngagementLog{}, ""))
}

func TestRespond_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.users(t, 2)

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, u[:1], "")
	require.NoError(t, err)
	invs, err := f.svc.ListForEvent(ctx, f.host, f.event.ID)
	require.NoError(t, err)
	id := invs[0].ID

	_, err = f.svc.Respond(ctx, u[0], id, entity.InvitationPending)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.Respond(ctx, u[1], id, entity.InvitationAccepted)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.Respond(ctx, u[0], uuid.New(), entity.InvitationAccepted)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListReceivedAndForEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	guest := f.users(t, 1)[0]
	other := testutil.CreateEvent(t, f.db, f.host, entity.EventDraft)

	for _, eventID := range []uuid.UUID{f.event.ID, other.ID} {
		f.clock.Advance(time.Minute)
		_, err := f.svc.BulkInvite(ctx, f.host, eventID, []uuid.UUID{guest}, "")
		require.NoError(t, err)
	}

	invs, total, err := f.svc.ListReceived(ctx, guest, entity.InvitationPending, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, invs, 1)

	_, err = f.svc.Respond(ctx, guest, invs[0].ID, entity.InvitationAccepted)
	require.NoError(t, err)

	invs, total, err = f.svc.ListReceived(ctx, guest, entity.InvitationAccepted, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, invs, 1)

	_, _, err = f.svc.ListReceived(ctx, guest, "maybe", 1, 10)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	_, err = f.svc.ListForEvent(ctx, guest, f.event.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

// failingHistoryRepo fails UpsertHistory after the first allowed calls.
type failingHistoryRepo struct {
	invRepo.InvitationRepository
	allowed int
	calls   *int
}

func (r *failingHistoryRepo) WithTx(tx *gorm.DB) invRepo.InvitationRepository {
	return &failingHistoryRepo{InvitationRepository: r.InvitationRepository.WithTx(tx), allowed: r.allowed, calls: r.calls}
}

func (r *failingHistoryRepo) UpsertHistory(ctx context.Context, hostID, inviteeID, eventID uuid.UUID, now time.Time) error {
	*r.calls++
	if *r.calls > r.allowed {
		return errors.New("history write failed")
	}
	return r.InvitationRepository.UpsertHistory(ctx, hostID, inviteeID, eventID, now)
}

func TestBulkInvite_PartialFailureRollsBackEverything(t *testing.T) {
	calls := 0
	f := newFixtureWith(t, fixtureOptions{
		wrapRepo: func(r invRepo.InvitationRepository) invRepo.InvitationRepository {
			return &failingHistoryRepo{InvitationRepository: r, allowed: 1, calls: &calls}
		},
	})
	ctx := context.Background()
	u := f.users(t, 3)

	// prior history between host and u[0] from another event
	other := testutil.CreateEvent(t, f.db, f.host, entity.EventActive)
	base := invRepo.NewInvitationRepository(f.db)
	require.NoError(t, base.UpsertHistory(ctx, f.host, u[0], other.ID, f.clock.Now()))
	before, err := base.FindHistory(ctx, f.host, u[0])
	require.NoError(t, err)

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, u, "")
	require.Error(t, err)
	assert.Equal(t, 2, calls)

	assert.EqualValues(t, 0, testutil.CountRows(t, f.db, &entity.EventInvitation{}, "event_id = ?", f.event.ID))
	assert.EqualValues(t, 1, testutil.CountRows(t, f.db, &entity.InviteeHistory{}, ""))

	after, err := base.FindHistory(ctx, f.host, u[0])
	require.NoError(t, err)
	assert.Equal(t, before.TotalInvitations, after.TotalInvitations)
	assert.Equal(t, before.EventsInvitedTo, after.EventsInvitedTo)

	assert.Equal(t, entity.EventDraft, f.eventStatus(t))
	assert.Empty(t, f.notifier.Messages())
}

func TestBulkInvite_CooldownArmedOnlyAfterValidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	f := newFixtureWith(t, fixtureOptions{redis: rdb, rateLimit: 3 * time.Second})
	ctx := context.Background()
	u := f.users(t, 2)

	_, err := f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[0], uuid.New()}, "")
	require.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[0]}, "")
	require.NoError(t, err)

	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[1]}, "")
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)

	mr.FastForward(4 * time.Second)
	_, err = f.svc.BulkInvite(ctx, f.host, f.event.ID, []uuid.UUID{u[1]}, "")
	assert.NoError(t, err)
}
