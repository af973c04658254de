package profiles

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/mcdev12/matchboard/go/internal/models"
	"github.com/mcdev12/matchboard/go/internal/store"
	"github.com/rs/zerolog/log"
)

// ProfilesApp defines what the handler needs from the profiles application.
type ProfilesApp interface {
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)
	SetTheme(ctx context.Context, ownerID string, theme models.Theme) (*models.Profile, error)
	ToggleTheme(ctx context.Context, ownerID string) (*models.Profile, error)
}

// Handler serves the operator's own profile over HTTP.
type Handler struct {
	app      ProfilesApp
	validate *validator.Validate
}

func NewHandler(app ProfilesApp) *Handler {
	return &Handler{
		app:      app,
		validate: validator.New(),
	}
}

// RegisterRoutes registers profile routes behind the verifier middleware.
func (h *Handler) RegisterRoutes(r *mux.Router, verifier *auth.Verifier) {
	sub := r.PathPrefix("/api/profile").Subrouter()
	sub.Use(verifier.Middleware)
	sub.HandleFunc("", h.HandleGetProfile).Methods(http.MethodGet)
	sub.HandleFunc("/theme", h.HandleSetTheme).Methods(http.MethodPut)
	sub.HandleFunc("/theme/toggle", h.HandleToggleTheme).Methods(http.MethodPost)
}

// HandleGetProfile handles GET /api/profile.
func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(ctx context.Context, owner string) (*models.Profile, error) {
		return h.app.GetProfile(ctx, owner)
	})
}

// HandleSetTheme handles PUT /api/profile/theme.
func (h *Handler) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	var req SetThemeRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.respond(w, r, func(ctx context.Context, owner string) (*models.Profile, error) {
		return h.app.SetTheme(ctx, owner, req.Theme)
	})
}

// HandleToggleTheme handles POST /api/profile/theme/toggle.
func (h *Handler) HandleToggleTheme(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(ctx context.Context, owner string) (*models.Profile, error) {
		return h.app.ToggleTheme(ctx, owner)
	})
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, owner string) (*models.Profile, error)) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	p, err := fn(r.Context(), owner)
	if err != nil {
		status := http.StatusInternalServerError
		if store.IsUnavailable(err) {
			status = http.StatusServiceUnavailable
		}
		log.Error().Err(err).Str("owner_id", owner).Msg("profile request failed")
		http.Error(w, "profile request failed", status)
		return
	}

	data, err := sonic.Marshal(p)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
