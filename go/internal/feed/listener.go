package feed

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/matchboard/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // channel the matches trigger notifies
	FallbackInterval time.Duration // sweep for rows whose NOTIFY was missed
	MaxRetries       int
	RetryDelay       time.Duration
	PingInterval     time.Duration
	BatchSize        int
	Retention        time.Duration // how long relayed rows are kept
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    "match_changes",
		FallbackInterval: 10 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		PingInterval:     90 * time.Second,
		BatchSize:        100,
		Retention:        24 * time.Hour,
	}
}

// Listener relays rows of match_changes to a Publisher. Each committed
// write NOTIFYs the row id; rows whose notification was lost are picked up
// by the fallback sweep.
type Listener struct {
	db        *sql.DB
	queries   *ChangeQueries
	listener  *pq.Listener
	publisher Publisher
	cfg       ListenerConfig
}

func NewListener(dbConn *sql.DB, publisher Publisher, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		return nil, errors.Wrap(err, "listen to channel")
	}

	log.Info().Str("channel", cfg.NotifyChannel).Msg("listening for notifications")

	return &Listener{
		db:        dbConn,
		queries:   NewChangeQueries(dbConn),
		listener:  l,
		publisher: publisher,
		cfg:       cfg,
	}, nil
}

func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	// rows committed while no relay was running
	if err := l.processUnsent(ctx); err != nil {
		log.Error().Err(err).Msg("initial sweep failed")
	}

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; notifications may have been dropped
				if err := l.processUnsent(ctx); err != nil {
					log.Error().Err(err).Msg("failed to process unsent changes")
				}
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			if err := l.processUnsent(ctx); err != nil {
				log.Error().Err(err).Msg("failed to process unsent changes")
			}
			l.prune(ctx)
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification relays the change whose id is the notify payload.
func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	id, err := uuid.Parse(extra)
	if err != nil {
		return errors.Wrap(err, "invalid change id in notification")
	}

	change, err := l.queries.FetchUnsentByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		// already relayed by a sweep
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "fetch change")
	}

	if err := l.publishWithRetry(ctx, change); err != nil {
		return err
	}
	if err := l.queries.MarkSent(ctx, id); err != nil {
		return errors.Wrapf(err, "mark change %s sent", id)
	}

	log.Debug().
		Str("change_id", id.String()).
		Str("match_id", change.MatchID.String()).
		Str("event_type", string(change.Type)).
		Msg("relayed change")
	return nil
}

// processUnsent relays unsent rows in commit order inside one transaction.
// A publish failure stops the batch so later changes never overtake it.
func (l *Listener) processUnsent(ctx context.Context) error {
	newQueries := func(tx *sql.Tx) *ChangeQueries { return NewChangeQueries(tx) }

	return sqlutil.Run(ctx, l.db, newQueries, func(q *ChangeQueries) error {
		unsent, err := q.LockUnsent(ctx, l.cfg.BatchSize)
		if err != nil {
			return err
		}
		for _, change := range unsent {
			if err := l.publishWithRetry(ctx, change); err != nil {
				log.Error().Err(err).Str("change_id", change.ID.String()).Msg("failed to publish change")
				return nil
			}
			if err := q.MarkSent(ctx, change.ID); err != nil {
				return errors.Wrapf(err, "mark change %s sent", change.ID)
			}
		}
		if len(unsent) > 0 {
			log.Info().Int("count", len(unsent)).Msg("relayed unsent changes")
		}
		return nil
	})
}

func (l *Listener) prune(ctx context.Context) {
	if l.cfg.Retention <= 0 {
		return
	}
	n, err := l.queries.PruneSent(ctx, time.Now().Add(-l.cfg.Retention))
	if err != nil {
		log.Error().Err(err).Msg("failed to prune relayed changes")
		return
	}
	if n > 0 {
		log.Debug().Int64("count", n).Msg("pruned relayed changes")
	}
}

// publishWithRetry publishes with a linear backoff between attempts.
func (l *Listener) publishWithRetry(ctx context.Context, change Change) error {
	var lastErr error

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := l.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := l.publisher.Publish(ctx, change); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("change_id", change.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("change_id", change.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return errors.Wrapf(lastErr, "publish failed after %d attempts", l.cfg.MaxRetries+1)
}
