package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mdbook-reader/reader/internal/loader"
	"github.com/mdbook-reader/reader/internal/models"
	"github.com/mdbook-reader/reader/internal/render"
	"github.com/mdbook-reader/reader/internal/storage"
)

// Remediation is shown alongside structural load failures
const Remediation = "Make sure the content directory contains an index.json listing your chapters, or files named like chapter1.md, ch1.md or 01.md."

// Display states of the reader
const (
	StateLoading = "loading"
	StateError   = "error"
	StateEmpty   = "empty"
	StateReading = "reading"
)

type Handler struct {
	loader       *loader.Loader
	sessionStore *storage.SessionStore
	renderer     *render.Renderer
	staticDir    string
}

// Config wires the handler's collaborators
type Config struct {
	Loader    *loader.Loader
	Sessions  *storage.SessionStore
	Renderer  *render.Renderer
	StaticDir string
}

func New(cfg Config) *Handler {
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = storage.New(storage.DefaultProgressDelay)
	}
	renderer := cfg.Renderer
	if renderer == nil {
		renderer = render.New(render.Options{})
	}
	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}

	return &Handler{
		loader:       cfg.Loader,
		sessionStore: sessions,
		renderer:     renderer,
		staticDir:    staticDir,
	}
}

// Routes registers the reader API on a new mux
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/book", h.HandleBook)
	mux.HandleFunc("/api/chapters/", h.HandleChapter)
	mux.HandleFunc("/api/sessions", h.HandleSessions)
	mux.HandleFunc("/api/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("/", h.HandleStatic)
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// loadBook returns the book or writes the structural error response
func (h *Handler) loadBook(ctx context.Context, w http.ResponseWriter) (*models.Book, bool) {
	book, err := h.loader.Load(ctx)
	if err != nil {
		h.writeJSONStatus(w, http.StatusInternalServerError, map[string]string{
			"state":       StateError,
			"error":       loader.ErrLoadFailed.Error(),
			"remediation": Remediation,
		})
		return nil, false
	}
	return book, true
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.ReaderSession, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
