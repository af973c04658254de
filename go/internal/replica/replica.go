// Package replica keeps a local read copy of one match: a snapshot fetched
// after subscribing to the change feed, then every newer change.
package replica

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// Status is the lifecycle of the replicated record.
type Status string

const (
	StatusLoading  Status = "loading"
	StatusLive     Status = "live"
	StatusNotFound Status = "not_found"
	StatusDeleted  Status = "deleted"
)

// Snapshot is the replica's view at one point. Match is only meaningful
// while Status is live.
type Snapshot struct {
	Status Status       `json:"status"`
	Match  models.Match `json:"match"`
}

// Snapshotter fetches the current record. store.MatchStore satisfies it.
type Snapshotter interface {
	Get(ctx context.Context, id uuid.UUID) (models.Match, error)
}

const (
	minRetry = 500 * time.Millisecond
	maxRetry = 10 * time.Second
)

// Replica follows one match. Create it with New and drive it with Run.
type Replica struct {
	id       uuid.UUID
	source   feed.Subscriber
	snap     Snapshotter
	clock    clockwork.Clock
	onChange func(Snapshot)

	mu      sync.RWMutex
	current Snapshot
}

// New returns a replica for match id. onChange, if set, is called from the
// Run goroutine with every accepted state.
func New(id uuid.UUID, source feed.Subscriber, snap Snapshotter, clock clockwork.Clock, onChange func(Snapshot)) *Replica {
	return &Replica{
		id:       id,
		source:   source,
		snap:     snap,
		clock:    clock,
		onChange: onChange,
		current:  Snapshot{Status: StatusLoading},
	}
}

// Current returns the latest accepted state.
func (r *Replica) Current() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.current
	s.Match = s.Match.Clone()
	return s
}

// Run replicates until ctx is cancelled. A lagged subscription triggers a
// fresh subscribe and snapshot. Run returns nil on cancellation and the
// feed error when the feed itself shut down.
func (r *Replica) Run(ctx context.Context) error {
	for {
		err := r.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, feed.ErrLagged) {
			log.Warn().Str("match_id", r.id.String()).Msg("replica lagged, resyncing")
			continue
		}
		return err
	}
}

// session subscribes before fetching the snapshot so no committed change
// falls between the two.
func (r *Replica) session(ctx context.Context) error {
	sub := r.source.Subscribe(feed.ForMatch(r.id))
	defer sub.Close()

	if err := r.loadSnapshot(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return feed.ErrClosed
			}
			r.apply(c)
		}
	}
}

func (r *Replica) loadSnapshot(ctx context.Context) error {
	wait := minRetry
	for {
		m, err := r.snap.Get(ctx, r.id)
		switch {
		case err == nil:
			r.acceptRecord(m)
			return nil
		case errors.Is(err, store.ErrNotFound):
			r.accept(Snapshot{Status: StatusNotFound})
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		}

		log.Warn().Err(err).Str("match_id", r.id.String()).Dur("retry_in", wait).Msg("snapshot failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.clock.After(wait):
		}
		wait = min(wait*2, maxRetry)
	}
}

// apply folds one change into the replica, dropping anything not newer than
// what is already held.
func (r *Replica) apply(c feed.Change) {
	r.mu.RLock()
	cur := r.current
	r.mu.RUnlock()

	if cur.Status == StatusDeleted {
		return
	}

	switch c.Type {
	case feed.EventDelete:
		r.accept(Snapshot{Status: StatusDeleted})
	case feed.EventInsert, feed.EventUpdate:
		if c.Record != nil {
			r.acceptRecord(c.Record.Clone())
		}
	}
}

// acceptRecord takes m unless a record with the same or a later revision is
// already held.
func (r *Replica) acceptRecord(m models.Match) {
	r.mu.RLock()
	cur := r.current
	r.mu.RUnlock()

	if cur.Status == StatusLive && m.Revision <= cur.Match.Revision {
		log.Debug().
			Str("match_id", r.id.String()).
			Int64("revision", m.Revision).
			Int64("held_revision", cur.Match.Revision).
			Msg("dropping stale record")
		return
	}
	r.accept(Snapshot{Status: StatusLive, Match: m})
}

func (r *Replica) accept(s Snapshot) {
	r.mu.Lock()
	r.current = s
	r.mu.Unlock()
	if r.onChange != nil {
		r.onChange(s)
	}
}
