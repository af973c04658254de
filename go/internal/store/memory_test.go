package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemory(t *testing.T) (*MemoryStore, *feed.Broker, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	broker := feed.NewBroker(16)
	return NewMemoryStore(broker, clock), broker, clock
}

func next(t *testing.T, sub *feed.Subscription) feed.Change {
	t.Helper()
	select {
	case c, ok := <-sub.C():
		require.True(t, ok, "subscription closed")
		return c
	default:
		t.Fatal("no change delivered")
		return feed.Change{}
	}
}

func TestMemoryStoreCreateEmitsInsert(t *testing.T) {
	s, broker, clock := newMemory(t)
	sub := broker.Subscribe(feed.ForOwner("op"))
	defer sub.Close()

	m, err := s.Create(context.Background(), models.NewMatch(uuid.New(), "op", "Opener", time.Time{}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Revision)
	assert.True(t, m.CreatedAt.Equal(clock.Now()))

	c := next(t, sub)
	assert.Equal(t, feed.EventInsert, c.Type)
	assert.Equal(t, m.ID, c.MatchID)
	require.NotNil(t, c.Record)
	assert.Equal(t, "Opener", c.Record.Name)
}

func TestMemoryStoreUpdateBumpsRevision(t *testing.T) {
	s, broker, clock := newMemory(t)
	ctx := context.Background()
	m, err := s.Create(ctx, models.NewMatch(uuid.New(), "op", "x", time.Time{}))
	require.NoError(t, err)

	sub := broker.Subscribe(feed.ForMatch(m.ID))
	defer sub.Close()

	clock.Advance(5 * time.Second)
	period := 2
	updated, err := s.Update(ctx, m.ID, models.MatchPatch{CurrentPeriod: &period})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)
	assert.Equal(t, 2, updated.CurrentPeriod)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	c := next(t, sub)
	assert.Equal(t, feed.EventUpdate, c.Type)
	assert.Equal(t, int64(2), c.Revision())
	require.NotNil(t, c.Old)
	assert.Equal(t, 0, c.Old.CurrentPeriod)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s, _, _ := newMemory(t)
	ctx := context.Background()

	_, err := s.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	name := "x"
	_, err = s.Update(ctx, uuid.New(), models.MatchPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, uuid.New()), ErrNotFound)
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s, _, clock := newMemory(t)
	ctx := context.Background()

	first, err := s.Create(ctx, models.NewMatch(uuid.New(), "op", "first", time.Time{}))
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.Create(ctx, models.NewMatch(uuid.New(), "op", "second", time.Time{}))
	require.NoError(t, err)
	_, err = s.Create(ctx, models.NewMatch(uuid.New(), "someone-else", "other", time.Time{}))
	require.NoError(t, err)

	list, err := s.List(ctx, "op")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestMemoryStoreDeleteEmitsDelete(t *testing.T) {
	s, broker, _ := newMemory(t)
	ctx := context.Background()
	m, err := s.Create(ctx, models.NewMatch(uuid.New(), "op", "x", time.Time{}))
	require.NoError(t, err)

	sub := broker.Subscribe(feed.Filter{Events: []feed.EventType{feed.EventDelete}})
	defer sub.Close()

	require.NoError(t, s.Delete(ctx, m.ID))
	c := next(t, sub)
	assert.Equal(t, feed.EventDelete, c.Type)
	assert.Nil(t, c.Record)
	require.NotNil(t, c.Old)
	assert.Equal(t, m.ID, c.Old.ID)
}

func TestMemoryStoreCancelledContextIsUnavailable(t *testing.T) {
	s, _, _ := newMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, uuid.New())
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s, _, _ := newMemory(t)
	ctx := context.Background()
	m, err := s.Create(ctx, models.NewMatch(uuid.New(), "op", "x", time.Time{}))
	require.NoError(t, err)

	m.HomeTeam.Cards = append(m.HomeTeam.Cards, models.Card{Type: models.CardRed, ID: "c"})
	got, err := s.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.HomeTeam.Cards)
}

func TestBuildSetClause(t *testing.T) {
	period := 3
	running := false
	sets, args, err := buildSetClause(models.MatchPatch{
		CurrentPeriod:       &period,
		IsTimerRunning:      &running,
		ClearTimerStartedAt: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"current_period = $1", "is_timer_running = $2", "timer_started_at = NULL"}, sets)
	assert.Equal(t, []any{3, false}, args)

	_, _, err = buildSetClause(models.MatchPatch{})
	assert.Error(t, err)
}
