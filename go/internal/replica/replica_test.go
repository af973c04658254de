package replica

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 7, 4, 19, 0, 0, 0, time.UTC)

func setup(t *testing.T, buffer int) (*store.MemoryStore, *feed.Broker, *clockwork.FakeClock, models.Match) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	broker := feed.NewBroker(buffer)
	s := store.NewMemoryStore(broker, clock)
	m, err := s.Create(context.Background(), models.NewMatch(uuid.New(), "op", "x", t0))
	require.NoError(t, err)
	return s, broker, clock, m
}

func run(t *testing.T, r *Replica) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("replica did not stop")
		}
	})
}

func setPeriod(t *testing.T, s *store.MemoryStore, id uuid.UUID, p int) {
	t.Helper()
	_, err := s.Update(context.Background(), id, models.MatchPatch{CurrentPeriod: &p})
	require.NoError(t, err)
}

func TestReplicaFollowsUpdates(t *testing.T) {
	s, broker, clock, m := setup(t, 16)
	r := New(m.ID, broker, s, clock, nil)
	run(t, r)

	require.Eventually(t, func() bool { return r.Current().Status == StatusLive }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(1), r.Current().Match.Revision)

	setPeriod(t, s, m.ID, 2)
	require.Eventually(t, func() bool { return r.Current().Match.Revision == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, r.Current().Match.CurrentPeriod)

	require.NoError(t, s.Delete(context.Background(), m.ID))
	require.Eventually(t, func() bool { return r.Current().Status == StatusDeleted }, time.Second, 5*time.Millisecond)
}

func TestReplicaNotFound(t *testing.T) {
	s, broker, clock, _ := setup(t, 16)
	r := New(uuid.New(), broker, s, clock, nil)
	run(t, r)

	require.Eventually(t, func() bool { return r.Current().Status == StatusNotFound }, time.Second, 5*time.Millisecond)
}

func TestReplicaDropsStaleAndDuplicateChanges(t *testing.T) {
	id := uuid.New()
	var seen []int64
	r := New(id, nil, nil, clockwork.NewFakeClock(), func(s Snapshot) {
		seen = append(seen, s.Match.Revision)
	})

	rec := func(rev int64) *models.Match {
		m := models.Match{ID: id, Revision: rev}
		return &m
	}
	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(5)})
	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(4)})
	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(5)})
	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(7)})
	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(6)})

	assert.Equal(t, []int64{5, 7}, seen)
	assert.Equal(t, int64(7), r.Current().Match.Revision)

	r.apply(feed.Change{Type: feed.EventDelete, MatchID: id, Old: rec(7)})
	assert.Equal(t, StatusDeleted, r.Current().Status)

	r.apply(feed.Change{Type: feed.EventUpdate, MatchID: id, Record: rec(9)})
	assert.Equal(t, StatusDeleted, r.Current().Status)
}

func TestReplicaResyncsAfterLag(t *testing.T) {
	s, broker, clock, m := setup(t, 1)

	block := make(chan struct{})
	var first sync.Once
	r := New(m.ID, broker, s, clock, func(Snapshot) {
		first.Do(func() { <-block })
	})
	run(t, r)

	// the replica is parked inside its first callback with the subscription open
	require.Eventually(t, func() bool { return broker.SubscriberCount() == 1 && r.Current().Status == StatusLive }, time.Second, 5*time.Millisecond)

	setPeriod(t, s, m.ID, 1)
	setPeriod(t, s, m.ID, 2)
	setPeriod(t, s, m.ID, 3)
	close(block)

	require.Eventually(t, func() bool {
		cur := r.Current()
		return cur.Status == StatusLive && cur.Match.Revision == 4
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, r.Current().Match.CurrentPeriod)
}

type flakySnapshotter struct {
	inner Snapshotter
	fails atomic.Int32
}

func (f *flakySnapshotter) Get(ctx context.Context, id uuid.UUID) (models.Match, error) {
	if f.fails.Add(-1) >= 0 {
		return models.Match{}, store.Unavailable(errors.New("timeout"), "get match")
	}
	return f.inner.Get(ctx, id)
}

func TestReplicaRetriesUnavailableSnapshot(t *testing.T) {
	s, broker, clock, m := setup(t, 16)
	snap := &flakySnapshotter{inner: s}
	snap.fails.Store(1)

	r := New(m.ID, broker, snap, clock, nil)
	run(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	assert.Equal(t, StatusLoading, r.Current().Status)

	clock.Advance(minRetry)
	require.Eventually(t, func() bool { return r.Current().Status == StatusLive }, time.Second, 5*time.Millisecond)
}

func TestReplicaReturnsWhenFeedCloses(t *testing.T) {
	s, broker, clock, m := setup(t, 16)
	r := New(m.ID, broker, s, clock, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	require.Eventually(t, func() bool { return r.Current().Status == StatusLive }, time.Second, 5*time.Millisecond)
	broker.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, feed.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("replica did not return")
	}
}
