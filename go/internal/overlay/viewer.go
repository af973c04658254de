package overlay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/replica"
	"github.com/rs/zerolog/log"
)

// Config sets the redraw cadences of a viewer.
type Config struct {
	ClockInterval time.Duration
	CardInterval  time.Duration
}

func DefaultConfig() Config {
	return Config{
		ClockInterval: 200 * time.Millisecond,
		CardInterval:  time.Second,
	}
}

// Sink receives frames from a viewer.
type Sink interface {
	Send(ctx context.Context, f Frame) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, f Frame) error

func (fn SinkFunc) Send(ctx context.Context, f Frame) error { return fn(ctx, f) }

// Viewer renders one match for one consumer. It owns a replica and two
// tickers; all of them are released when Run returns.
type Viewer struct {
	matchID uuid.UUID
	source  feed.Subscriber
	snap    replica.Snapshotter
	clock   clockwork.Clock
	cfg     Config
	sink    Sink
}

func NewViewer(matchID uuid.UUID, source feed.Subscriber, snap replica.Snapshotter, clock clockwork.Clock, cfg Config, sink Sink) *Viewer {
	if cfg.ClockInterval <= 0 {
		cfg.ClockInterval = DefaultConfig().ClockInterval
	}
	if cfg.CardInterval <= 0 {
		cfg.CardInterval = DefaultConfig().CardInterval
	}
	return &Viewer{
		matchID: matchID,
		source:  source,
		snap:    snap,
		clock:   clock,
		cfg:     cfg,
		sink:    sink,
	}
}

// Run pushes a frame whenever the rendered view changes, until ctx is
// cancelled or the sink fails.
func (v *Viewer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// latest snapshot wins; older undelivered ones are dropped
	updates := make(chan replica.Snapshot, 1)
	rep := replica.New(v.matchID, v.source, v.snap, v.clock, func(s replica.Snapshot) {
		select {
		case <-updates:
		default:
		}
		updates <- s
	})

	replicaErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		replicaErr <- rep.Run(ctx)
	}()

	clockTicker := v.clock.NewTicker(v.cfg.ClockInterval)
	defer clockTicker.Stop()
	cardTicker := v.clock.NewTicker(v.cfg.CardInterval)
	defer cardTicker.Stop()

	var (
		snap     = replica.Snapshot{Status: replica.StatusLoading}
		clockAt  = v.clock.Now()
		cardsAt  = clockAt
		last     Frame
		sentOnce bool
	)
	emit := func() error {
		f := Render(snap, clockAt, cardsAt)
		if sentOnce && f.Equal(last) {
			return nil
		}
		if err := v.sink.Send(ctx, f); err != nil {
			return err
		}
		last, sentOnce = f, true
		return nil
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case err = <-replicaErr:
			if err != nil {
				log.Warn().Err(err).Str("match_id", v.matchID.String()).Msg("viewer feed ended")
			}
			return err
		case snap = <-updates:
			clockAt = v.clock.Now()
			cardsAt = clockAt
			err = emit()
		case <-clockTicker.Chan():
			clockAt = v.clock.Now()
			err = emit()
		case <-cardTicker.Chan():
			cardsAt = v.clock.Now()
			err = emit()
		}
		if err != nil {
			return err
		}
	}
}

// Follower shows one match at a time and switches between matches on
// request. The previous viewer is fully stopped before the next starts, so
// a consumer never receives frames from two matches.
type Follower struct {
	newViewer func(id uuid.UUID) *Viewer

	mu      sync.Mutex
	current uuid.UUID
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewFollower(newViewer func(id uuid.UUID) *Viewer) *Follower {
	return &Follower{newViewer: newViewer}
}

// Observe switches to match id. Observing the current match is a no-op.
func (f *Follower) Observe(ctx context.Context, id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done != nil && f.current == id {
		return
	}
	f.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	f.current, f.cancel, f.done = id, cancel, done

	viewer := f.newViewer(id)
	go func() {
		defer close(done)
		if err := viewer.Run(runCtx); err != nil {
			log.Debug().Err(err).Str("match_id", id.String()).Msg("viewer stopped")
		}
	}()
}

// Current returns the observed match id, or uuid.Nil.
func (f *Follower) Current() uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Stop ends the current viewer and waits for it.
func (f *Follower) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopLocked()
}

func (f *Follower) stopLocked() {
	if f.done == nil {
		return
	}
	f.cancel()
	<-f.done
	f.current, f.cancel, f.done = uuid.Nil, nil, nil
}
