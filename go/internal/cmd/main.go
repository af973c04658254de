package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mcdev12/matchboard/go/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	server := setupServer(cfg.Port, services)

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, r := range services.runners {
		r := r
		p.Go(func(ctx context.Context) error {
			log.Info().Str("component", r.name).Msg("starting")
			if err := r.run(ctx); err != nil {
				return errors.Wrapf(err, "%s failed", r.name)
			}
			return nil
		})
	}
	p.Go(func(ctx context.Context) error {
		log.Info().
			Str("addr", server.Addr).
			Str("store", cfg.Store).
			Bool("nats", cfg.NATSURL != "").
			Bool("dev_auth", services.Verifier.DevMode()).
			Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "HTTP server failed")
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := p.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		services.Close()
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
