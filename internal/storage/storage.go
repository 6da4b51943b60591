package storage

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mdbook-reader/reader/internal/models"
)

// DefaultProgressDelay is the trailing-edge interval for progress updates
const DefaultProgressDelay = 500 * time.Millisecond

type SessionStore struct {
	sessions map[string]*models.ReaderSession
	mu       sync.RWMutex

	delay   time.Duration
	pending map[string]*pendingProgress
	now     func() time.Time
}

type pendingProgress struct {
	timer    *time.Timer
	progress models.Progress
}

// New creates a session store whose progress writes are debounced by delay.
// A zero delay writes progress immediately.
func New(delay time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.ReaderSession),
		delay:    delay,
		pending:  make(map[string]*pendingProgress),
		now:      time.Now,
	}
}

// Create starts a session positioned on currentChapterID
func (s *SessionStore) Create(currentChapterID string) *models.ReaderSession {
	session := &models.ReaderSession{
		ID:               uuid.NewString(),
		CurrentChapterID: currentChapterID,
		Settings:         models.DefaultDisplaySettings(),
		Progress:         make(map[string]models.Progress),
		CreatedAt:        s.now(),
	}
	s.Set(session.ID, session)
	return cloneSession(session)
}

func (s *SessionStore) Get(sessionID string) (*models.ReaderSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, false
	}
	return cloneSession(session), true
}

func (s *SessionStore) Set(sessionID string, session *models.ReaderSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneSession(session)
	stored.ID = sessionID
	if stored.Progress == nil {
		stored.Progress = make(map[string]models.Progress)
	}
	s.sessions[sessionID] = stored
}

func (s *SessionStore) GetAll() map[string]*models.ReaderSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.ReaderSession, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = cloneSession(v)
	}
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	for key, p := range s.pending {
		if keySession(key) == sessionID {
			p.timer.Stop()
			delete(s.pending, key)
		}
	}
}

// SetCurrentChapter moves the session to chapterID
func (s *SessionStore) SetCurrentChapter(sessionID, chapterID string) bool {
	return s.update(sessionID, func(session *models.ReaderSession) {
		session.CurrentChapterID = chapterID
	})
}

// SetLoading sets the session's loading flag
func (s *SessionStore) SetLoading(sessionID string, loading bool) bool {
	return s.update(sessionID, func(session *models.ReaderSession) {
		session.Loading = loading
	})
}

// SetError records a user-facing error on the session; empty clears it
func (s *SessionStore) SetError(sessionID, message string) bool {
	return s.update(sessionID, func(session *models.ReaderSession) {
		session.Error = message
	})
}

// SetSettings replaces the session's display settings
func (s *SessionStore) SetSettings(sessionID string, settings models.DisplaySettings) bool {
	return s.update(sessionID, func(session *models.ReaderSession) {
		session.Settings = settings
	})
}

// GetProgress returns the stored progress for a chapter
func (s *SessionStore) GetProgress(sessionID, chapterID string) (models.Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return models.Progress{}, false
	}
	progress, ok := session.Progress[chapterID]
	return progress, ok
}

// UpdateProgress schedules a progress write for the chapter. Writes are
// trailing-edge debounced per session and chapter: at most one write per
// interval, carrying the latest position. Returns false for unknown sessions.
func (s *SessionStore) UpdateProgress(sessionID, chapterID string, scrollPosition float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return false
	}

	progress := models.Progress{
		ChapterID:      chapterID,
		ScrollPosition: scrollPosition,
		Timestamp:      s.now().UnixMilli(),
	}

	if s.delay <= 0 {
		s.sessions[sessionID].Progress[chapterID] = progress
		return true
	}

	key := progressKey(sessionID, chapterID)
	if p, ok := s.pending[key]; ok {
		p.progress = progress
		return true
	}

	p := &pendingProgress{progress: progress}
	p.timer = time.AfterFunc(s.delay, func() { s.flush(key, sessionID) })
	s.pending[key] = p
	return true
}

// Flush writes every pending progress update immediately
func (s *SessionStore) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		s.commit(keySession(key), p.progress)
		delete(s.pending, key)
	}
}

func (s *SessionStore) flush(key, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return
	}
	delete(s.pending, key)
	s.commit(sessionID, p.progress)
}

// commit expects s.mu to be held
func (s *SessionStore) commit(sessionID string, progress models.Progress) {
	session, exists := s.sessions[sessionID]
	if !exists {
		return
	}
	session.Progress[progress.ChapterID] = progress
}

func (s *SessionStore) update(sessionID string, fn func(*models.ReaderSession)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, exists := s.sessions[sessionID]
	if !exists {
		return false
	}
	fn(session)
	return true
}

func progressKey(sessionID, chapterID string) string {
	return sessionID + "\x00" + chapterID
}

func keySession(key string) string {
	sessionID, _, _ := strings.Cut(key, "\x00")
	return sessionID
}

func cloneSession(session *models.ReaderSession) *models.ReaderSession {
	if session == nil {
		return nil
	}
	clone := *session
	clone.Progress = make(map[string]models.Progress, len(session.Progress))
	for k, v := range session.Progress {
		clone.Progress[k] = v
	}
	return &clone
}
