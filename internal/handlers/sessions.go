package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mdbook-reader/reader/internal/loader"
	"github.com/mdbook-reader/reader/internal/models"
)

// SessionResponse pairs a session with the reader display state
type SessionResponse struct {
	State   string                `json:"state"`
	Session *models.ReaderSession `json:"session"`
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]*models.ReaderSession, 0, len(sessions))
		for _, session := range sessions {
			sessionList = append(sessionList, session)
		}
		h.writeJSON(w, sessionList)
	case "POST":
		h.createSession(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessionStore.Create("")
	h.sessionStore.SetLoading(session.ID, true)

	state := StateReading
	book, err := h.loader.Load(r.Context())
	switch {
	case err != nil:
		state = StateError
		h.sessionStore.SetError(session.ID, loader.ErrLoadFailed.Error())
	case book.Empty():
		state = StateEmpty
	default:
		h.sessionStore.SetCurrentChapter(session.ID, book.Chapters[0].ID)
	}
	h.sessionStore.SetLoading(session.ID, false)

	session, _ = h.sessionStore.Get(session.ID)
	h.writeJSONStatus(w, http.StatusCreated, SessionResponse{State: state, Session: session})
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions/"), "/")
	sessionID, sub, _ := strings.Cut(rest, "/")

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	if sub != "" {
		section, chapterID, _ := strings.Cut(sub, "/")
		if section != "progress" {
			h.writeError(w, "Not found", http.StatusNotFound)
			return
		}
		h.handleProgress(w, r, session, chapterID)
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, session)
	case "PUT":
		var update struct {
			CurrentChapterID *string                 `json:"currentChapterId"`
			Settings         *models.DisplaySettings `json:"settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if update.CurrentChapterID != nil {
			if !h.knownChapter(r, *update.CurrentChapterID) {
				h.writeError(w, "Chapter not found", http.StatusNotFound)
				return
			}
			h.sessionStore.SetCurrentChapter(sessionID, *update.CurrentChapterID)
		}
		if update.Settings != nil {
			h.sessionStore.SetSettings(sessionID, *update.Settings)
		}
		updated, _ := h.sessionStore.Get(sessionID)
		h.writeJSON(w, updated)
	case "DELETE":
		h.sessionStore.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request, session *models.ReaderSession, chapterID string) {
	if chapterID == "" {
		chapterID = session.CurrentChapterID
	}
	if chapterID == "" {
		h.writeError(w, "Chapter id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		progress, ok := h.sessionStore.GetProgress(session.ID, chapterID)
		if !ok {
			h.writeError(w, "No progress for chapter", http.StatusNotFound)
			return
		}
		h.writeJSON(w, progress)
	case "PUT":
		var request struct {
			ScrollPosition *float64 `json:"scrollPosition"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if request.ScrollPosition == nil || *request.ScrollPosition < 0 {
			h.writeError(w, "scrollPosition must be a non-negative number", http.StatusBadRequest)
			return
		}
		if !h.knownChapter(r, chapterID) {
			h.writeError(w, "Chapter not found", http.StatusNotFound)
			return
		}
		h.sessionStore.UpdateProgress(session.ID, chapterID, *request.ScrollPosition)
		w.WriteHeader(http.StatusAccepted)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) knownChapter(r *http.Request, chapterID string) bool {
	book, err := h.loader.Load(r.Context())
	if err != nil {
		return false
	}
	_, ok := book.Chapter(chapterID)
	return ok
}
