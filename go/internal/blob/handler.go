package blob

import (
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/mcdev12/matchboard/go/internal/auth"
	"github.com/rs/zerolog/log"
)

// UploadResponse is returned by POST /api/logos.
type UploadResponse struct {
	Ref Ref    `json:"ref"`
	URL string `json:"url"`
}

// LogoResponse is one entry of GET /api/logos.
type LogoResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Handler serves logo uploads, listings and downloads.
type Handler struct {
	store   Store
	baseURL string
}

func NewHandler(store Store, baseURL string) *Handler {
	return &Handler{store: store, baseURL: baseURL}
}

// RegisterRoutes registers logo routes. Uploads and listings need an
// operator; serving is public so overlays can load images.
func (h *Handler) RegisterRoutes(r *mux.Router, verifier *auth.Verifier) {
	r.Handle("/api/logos", verifier.Middleware(http.HandlerFunc(h.HandleUpload))).Methods(http.MethodPost)
	r.Handle("/api/logos", verifier.Middleware(http.HandlerFunc(h.HandleList))).Methods(http.MethodGet)
	r.HandleFunc("/logos/{name}", h.HandleServe).Methods(http.MethodGet)
}

// HandleUpload handles POST /api/logos as a multipart form with a "file" part.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize+1<<10)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		return
	}
	if len(data) > MaxUploadSize {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	ref, err := h.store.Upload(r.Context(), header.Filename, data)
	switch {
	case errors.Is(err, ErrUnsupportedType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	case err != nil:
		log.Error().Err(err).Str("filename", header.Filename).Msg("logo upload failed")
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}

	log.Info().Str("name", ref.Name).Int64("size", ref.Size).Msg("logo uploaded")
	writeJSON(w, http.StatusCreated, UploadResponse{Ref: ref, URL: PublicURL(h.baseURL, ref)})
}

// HandleList handles GET /api/logos.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	refs, err := h.store.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list logos")
		http.Error(w, "failed to list logos", http.StatusBadGateway)
		return
	}
	out := make([]LogoResponse, len(refs))
	for i, ref := range refs {
		out[i] = LogoResponse{Name: ref.Name, URL: PublicURL(h.baseURL, ref)}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleServe handles GET /logos/{name}.
func (h *Handler) HandleServe(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	body, ref, err := h.store.Open(r.Context(), name)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("name", name).Msg("failed to open logo")
		http.Error(w, "failed to open logo", http.StatusBadGateway)
		return
	}
	defer body.Close()

	if ref.ContentType != "" {
		w.Header().Set("Content-Type", ref.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(ref.Size, 10))
	// names are never reused
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, body); err != nil {
		log.Debug().Err(err).Str("name", name).Msg("logo download interrupted")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
