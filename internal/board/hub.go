package board

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one connected board: a controller plus the handle used to
// close its connection
type Session struct {
	ID         string
	Controller *Controller
	CreatedAt  time.Time

	lastActive atomic.Int64
	closeFn    func() error
	closeOnce  sync.Once
}

// NewSession creates a session. closeFn tears down the underlying connection.
func NewSession(controller *Controller, closeFn func() error) *Session {
	now := time.Now()
	s := &Session{
		ID:         uuid.New().String(),
		Controller: controller,
		CreatedAt:  now,
		closeFn:    closeFn,
	}
	s.lastActive.Store(now.UnixNano())
	return s
}

// Touch marks the session as active now
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// LastActive returns when the session last received a message
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Close closes the underlying connection once
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.closeFn != nil {
			err = s.closeFn()
		}
	})
	return err
}

// Hub tracks connected board sessions
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
	}
}

// Add registers a session
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Remove unregisters a session without closing it
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// Get returns a session by ID
func (h *Hub) Get(id string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// Count returns the number of connected sessions
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Idle returns sessions with no activity since before cutoff
func (h *Hub) Idle(cutoff time.Time) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var result []*Session
	for _, s := range h.sessions {
		if s.LastActive().Before(cutoff) {
			result = append(result, s)
		}
	}
	return result
}

// CloseAll closes and removes every session
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.Close()
	}
}
