package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/blob"
	"github.com/mcdev12/matchboard/go/internal/config"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/gateway"
	"github.com/mcdev12/matchboard/go/internal/jsutil"
	"github.com/mcdev12/matchboard/go/internal/match"
	"github.com/mcdev12/matchboard/go/internal/overlay"
	"github.com/mcdev12/matchboard/go/internal/profiles"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// runner is a long-lived component started alongside the HTTP server.
type runner struct {
	name string
	run  func(ctx context.Context) error
}

type Services struct {
	Verifier *auth.Verifier
	Match    *match.Service
	Gateway  *gateway.Service
	Profiles *profiles.Handler
	Logos    *blob.Handler

	runners []runner
	closers []func()
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// setupServices wires the dependency chain:
// storage → feed → app → service/handlers.
func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	clock := clockwork.NewRealClock()
	broker := feed.NewBroker(cfg.Feed.BufferSize)
	services := &Services{Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer)}
	services.closers = append(services.closers, broker.Close)

	var nc *nats.Conn
	var js jetstream.JetStream
	if cfg.NATSURL != "" {
		connCfg := jsutil.DefaultConnConfig()
		connCfg.URL = cfg.NATSURL
		conn, jsCtx, err := jsutil.Connect(connCfg)
		if err != nil {
			return nil, err
		}
		nc, js = conn, jsCtx
		services.closers = append(services.closers, nc.Close)
	}

	// Matches and profiles
	var (
		matchStore   store.MatchStore
		profilesRepo profiles.ProfilesRepository
	)
	switch cfg.Store {
	case config.StorePostgres:
		pool, sqlDB, err := setupDatabase(ctx, cfg.Database)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.closers = append(services.closers, pool.Close, func() { sqlDB.Close() })
		matchStore = store.NewPostgresStore(pool)
		profilesRepo = profiles.NewPostgresRepository(pool)
		if err := setupPostgresFeed(ctx, cfg, services, broker, sqlDB, js); err != nil {
			services.Close()
			return nil, err
		}
	default:
		// the memory store publishes straight into the broker
		matchStore = store.NewMemoryStore(broker, clock)
		profilesRepo = profiles.NewMemoryRepository(clock)
	}

	matchApp := match.NewApp(matchStore, clock)
	services.Match = match.NewService(matchApp)

	services.Gateway = gateway.NewService(gateway.Config{
		Connection: gateway.DefaultConnectionConfig(),
		Overlay: overlay.Config{
			ClockInterval: cfg.Overlay.ClockInterval,
			CardInterval:  cfg.Overlay.CardInterval,
		},
	}, broker, matchStore, services.Verifier, clock)
	services.runners = append(services.runners, runner{name: "gateway", run: services.Gateway.Start})

	services.Profiles = profiles.NewHandler(profiles.NewApp(profilesRepo))

	// Logos
	var logoStore blob.Store = blob.NewMemoryStore(clock)
	if js != nil {
		objects, err := blob.NewObjectStore(ctx, js, cfg.LogoBucket)
		if err != nil {
			services.Close()
			return nil, err
		}
		logoStore = objects
	} else {
		log.Warn().Msg("NATS not configured, logos are kept in memory")
	}
	services.Logos = blob.NewHandler(logoStore, cfg.PublicBaseURL)

	return services, nil
}

// setupPostgresFeed feeds the broker from match_changes. Without NATS the
// server relays the table itself; with NATS a separate relay publishes to
// JetStream and every server consumes the stream.
func setupPostgresFeed(ctx context.Context, cfg config.Config, services *Services, broker *feed.Broker, sqlDB *sql.DB, js jetstream.JetStream) error {
	if js == nil {
		listenerCfg := feed.DefaultListenerConfig()
		listenerCfg.DatabaseURL = cfg.Database.DSN()
		listenerCfg.NotifyChannel = cfg.Feed.NotifyChannel
		listenerCfg.FallbackInterval = cfg.Feed.FallbackInterval
		listenerCfg.Retention = cfg.Feed.Retention

		listener, err := feed.NewListener(sqlDB, feed.NewBrokerPublisher(broker), listenerCfg)
		if err != nil {
			return errors.Wrap(err, "failed to start change listener")
		}
		services.runners = append(services.runners, runner{name: "listener", run: listener.Start})
		return nil
	}

	jsCfg := feed.DefaultJetStreamConfig()
	jsCfg.StreamName = cfg.Feed.Stream
	jsCfg.SubjectPrefix = cfg.Feed.SubjectPrefix
	jsCfg.ConsumerName = consumerName(cfg.Feed.Consumer)

	consumer, err := feed.NewJetStreamConsumer(ctx, js, feed.NewBrokerPublisher(broker), jsCfg)
	if err != nil {
		return err
	}
	services.runners = append(services.runners, runner{name: "change consumer", run: consumer.Start})
	return nil
}

// consumerName makes the consumer unique to this process so each server
// receives every change.
func consumerName(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "host"
	}
	// subject tokens may not contain dots
	host = strings.ReplaceAll(host, ".", "-")
	return fmt.Sprintf("%s-%s-%s", base, host, uuid.NewString()[:8])
}
