package gateway

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/overlay"
	"github.com/mcdev12/matchboard/go/internal/replica"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// MatchReader loads the current record of a match.
type MatchReader interface {
	Get(ctx context.Context, id uuid.UUID) (models.Match, error)
}

// StateResponse is the canonical snapshot plus the server's clock, which
// lets a client estimate its own skew.
type StateResponse struct {
	Match      models.Match `json:"match"`
	ServerTime int64        `json:"server_time_ms"`
}

// StateHandler serves one-off snapshots for clients that poll.
type StateHandler struct {
	matches  MatchReader
	verifier *auth.Verifier
	clock    clockwork.Clock
}

func NewStateHandler(matches MatchReader, verifier *auth.Verifier, clock clockwork.Clock) *StateHandler {
	return &StateHandler{
		matches:  matches,
		verifier: verifier,
		clock:    clock,
	}
}

// HandleGetMatchState handles GET /api/matches/{id}/state.
func (h *StateHandler) HandleGetMatchState(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	m, err := ownedMatch(r.Context(), h.matches, ownerID, matchID)
	if err != nil {
		writeStoreError(w, err, matchID)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		Match:      m,
		ServerTime: h.clock.Now().UnixMilli(),
	})
}

// HandleGetOverlay handles GET /api/overlay/{id}. Public.
func (h *StateHandler) HandleGetOverlay(w http.ResponseWriter, r *http.Request) {
	matchID, ok := matchIDFromPath(w, r)
	if !ok {
		return
	}

	m, err := h.matches.Get(r.Context(), matchID)
	if err != nil {
		writeStoreError(w, err, matchID)
		return
	}
	now := h.clock.Now()
	frame := overlay.Render(replica.Snapshot{Status: replica.StatusLive, Match: m}, now, now)
	writeJSON(w, http.StatusOK, frame)
}

// RegisterStateRoutes registers snapshot routes. The match state route
// is wrapped in the verifier middleware.
func (h *StateHandler) RegisterStateRoutes(r *mux.Router) {
	r.Handle("/api/matches/{id}/state", h.verifier.Middleware(http.HandlerFunc(h.HandleGetMatchState))).Methods(http.MethodGet)
	r.HandleFunc("/api/overlay/{id}", h.HandleGetOverlay).Methods(http.MethodGet)
}

// ownedMatch hides other owners' matches behind ErrNotFound.
func ownedMatch(ctx context.Context, matches MatchReader, ownerID string, matchID uuid.UUID) (models.Match, error) {
	m, err := matches.Get(ctx, matchID)
	if err != nil {
		return models.Match{}, err
	}
	if m.OwnerID != ownerID {
		return models.Match{}, store.ErrNotFound
	}
	return m, nil
}

func matchIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid match id format", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeStoreError(w http.ResponseWriter, err error, matchID uuid.UUID) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "match not found", http.StatusNotFound)
	case store.IsUnavailable(err):
		log.Warn().Err(err).Str("match_id", matchID.String()).Msg("store unavailable")
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
	default:
		log.Error().Err(err).Str("match_id", matchID.String()).Msg("failed to load match")
		http.Error(w, "failed to load match", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
