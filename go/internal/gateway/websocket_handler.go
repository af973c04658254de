package gateway

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/overlay"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler serves the canonical record stream and overlay frames.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	verifier          *auth.Verifier
	source            feed.Subscriber
	matches           MatchReader
	clock             clockwork.Clock
	overlayConfig     overlay.Config
}

func NewWebSocketHandler(cm *ConnectionManager, verifier *auth.Verifier, source feed.Subscriber, matches MatchReader, clock clockwork.Clock, overlayConfig overlay.Config) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		verifier:          verifier,
		source:            source,
		matches:           matches,
		clock:             clock,
		overlayConfig:     overlayConfig,
	}
}

// HandleMatchStream handles GET /ws/matches/{id}. The owner's token may be
// passed as access_token since browsers cannot set headers on websockets.
func (h *WebSocketHandler) HandleMatchStream(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}

	ownerID, err := h.verifier.OwnerFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// checked before the upgrade so a missing match is a plain 404
	if _, err := h.ownedMatch(r.Context(), ownerID, matchID); err != nil {
		writeStoreError(w, err, matchID)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, KindStream, ownerID, matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to upgrade websocket connection")
		return
	}
	conn.Run()

	// registered before the snapshot read so no change is missed
	m, err := h.ownedMatch(r.Context(), ownerID, matchID)
	switch {
	case err == nil:
		_ = conn.SendMessage(snapshotMessage(m))
	case errors.Is(err, store.ErrNotFound):
		_ = conn.SendMessage(Message{Type: MessageNotFound, MatchID: matchID})
	default:
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to load snapshot")
		conn.Close()
	}
}

// HandleOverlayStream handles GET /ws/overlay/{id}. It is public: overlays
// run inside broadcast software without a login. The client may send
// {"type":"observe","match_id":...} to switch matches.
func (h *WebSocketHandler) HandleOverlayStream(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, KindOverlay, "", matchID)
	if err != nil {
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to upgrade websocket connection")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	follower := overlay.NewFollower(func(id uuid.UUID) *overlay.Viewer {
		return overlay.NewViewer(id, h.source, h.matches, h.clock, h.overlayConfig, overlaySink{conn: conn, matchID: id})
	})

	conn.onMessage = func(c *Connection, msg ClientMessage) {
		if msg.Type != ClientObserve {
			_ = c.SendMessage(Message{Type: MessageError, Error: "unknown message type"})
			return
		}
		id, err := uuid.Parse(msg.MatchID)
		if err != nil {
			_ = c.SendMessage(Message{Type: MessageError, Error: "invalid match_id"})
			return
		}
		c.Manager.move(c, id)
		follower.Observe(ctx, id)
	}
	conn.onClose = func() {
		cancel()
		follower.Stop()
	}

	follower.Observe(ctx, matchID)
	conn.Run()
}

// HandleConnectionStats handles GET /ws/stats.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers websocket routes on r.
func (h *WebSocketHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws/matches/{id}", h.HandleMatchStream).Methods(http.MethodGet)
	r.HandleFunc("/ws/overlay/{id}", h.HandleOverlayStream).Methods(http.MethodGet)
	r.HandleFunc("/ws/stats", h.HandleConnectionStats).Methods(http.MethodGet)
}

func (h *WebSocketHandler) ownedMatch(ctx context.Context, ownerID string, matchID uuid.UUID) (models.Match, error) {
	return ownedMatch(ctx, h.matches, ownerID, matchID)
}

// overlaySink writes viewer frames to a websocket.
type overlaySink struct {
	conn    *Connection
	matchID uuid.UUID
}

func (s overlaySink) Send(ctx context.Context, f overlay.Frame) error {
	return s.conn.SendMessage(Message{
		Type:    MessageOverlay,
		MatchID: s.matchID,
		Frame:   &f,
	})
}
