// Command relay publishes committed match changes from Postgres to
// JetStream. Run one per database; gateways consume the stream.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/mcdev12/matchboard/go/internal/config"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/jsutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(cfg.Level())

	if cfg.NATSURL == "" {
		log.Fatal().Msg("NATS_URL is required for the relay")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	connCfg := jsutil.DefaultConnConfig()
	connCfg.URL = cfg.NATSURL
	connCfg.Name = "matchboard-relay"
	nc, js, err := jsutil.Connect(connCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()

	jsCfg := feed.DefaultJetStreamConfig()
	jsCfg.StreamName = cfg.Feed.Stream
	jsCfg.SubjectPrefix = cfg.Feed.SubjectPrefix
	publisher, err := feed.NewJetStreamPublisher(ctx, js, jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}

	listenerCfg := feed.DefaultListenerConfig()
	listenerCfg.DatabaseURL = cfg.Database.DSN()
	listenerCfg.NotifyChannel = cfg.Feed.NotifyChannel
	listenerCfg.FallbackInterval = cfg.Feed.FallbackInterval
	listenerCfg.Retention = cfg.Feed.Retention

	listener, err := feed.NewListener(db, publisher, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create listener")
	}

	log.Info().
		Str("database", cfg.Database.Database).
		Str("stream", jsCfg.StreamName).
		Str("channel", listenerCfg.NotifyChannel).
		Msg("starting change relay")

	if err := listener.Start(ctx); err != nil {
		log.Error().Err(err).Msg("relay stopped with error")
	}
	log.Info().Msg("change relay stopped")
}
