package wizard

import (
	"errors"
	"sync"
)

// ErrSessionNotFound means the session id is unknown or already discarded.
var ErrSessionNotFound = errors.New("wizard: session not found")

// Registry holds live wizard sessions by id. Sessions are in-memory only; a
// process restart abandons them, which matches the run-to-completion nature
// of a wizard pass.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Start creates and registers a new session.
func (r *Registry) Start(prefill string, targetYear int) *Session {
	s := NewSession(prefill, targetYear)
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Discard drops a session. Dropping an unknown id is a no-op.
func (r *Registry) Discard(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}
