// Package gateway pushes match state to browsers: the canonical record
// stream for operator consoles and derived frames for broadcast overlays.
package gateway

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/overlay"
	"github.com/rs/zerolog/log"
)

// Config holds configuration for the gateway service.
type Config struct {
	Connection ConnectionConfig
	Overlay    overlay.Config
}

func DefaultConfig() Config {
	return Config{
		Connection: DefaultConnectionConfig(),
		Overlay:    overlay.DefaultConfig(),
	}
}

// Service wires the connection manager to the websocket and state handlers.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// NewService builds a gateway reading changes from source and snapshots
// from matches.
func NewService(config Config, source feed.Subscriber, matches MatchReader, verifier *auth.Verifier, clock clockwork.Clock) *Service {
	cm := NewConnectionManager(config.Connection, source, matches, clock)
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm, verifier, source, matches, clock, config.Overlay),
		stateHandler:      NewStateHandler(matches, verifier, clock),
	}
}

// Start runs the feed relay until ctx is cancelled, then closes every
// connection.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting match gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("match gateway stopped")
	return nil
}

// RegisterRoutes registers websocket and REST routes.
func (s *Service) RegisterRoutes(r *mux.Router) {
	s.wsHandler.RegisterRoutes(r)
	s.stateHandler.RegisterStateRoutes(r)
	log.Info().Msg("match gateway routes registered")
}

// GetStats returns statistics about open connections.
func (s *Service) GetStats() Stats {
	return s.connectionManager.GetConnectionStats()
}
