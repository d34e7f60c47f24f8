// Package session tracks the live connections a handler is serving.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Session describes one open connection
type Session struct {
	ID           string    `json:"id"`
	Remote       string    `json:"remote"`
	ConnectedAt  time.Time `json:"connected_at"`
	LastActivity time.Time `json:"last_activity"`
	Actions      int       `json:"actions"`
}

// Registry holds the sessions that are currently open
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Open registers a new session for remote
func (r *Registry) Open(remote string) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := r.now()
	s := &Session{
		ID:           id,
		Remote:       remote,
		ConnectedAt:  now,
		LastActivity: now,
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	return s, nil
}

// Touch records an action on the session. It reports false for unknown ids.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.LastActivity = r.now()
	s.Actions++
	return true
}

// Get returns a copy of the session
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Close removes the session
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of open sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns copies of all open sessions, oldest first.
func (r *Registry) List() []Session {
	r.mu.RLock()
	list := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, *s)
	}
	r.mu.RUnlock()

	slices.SortFunc(list, func(a, b Session) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return list
}

// Idle returns the ids of sessions without activity for longer than ttl.
func (r *Registry) Idle(ttl time.Duration) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cutoff := r.now().Add(-ttl)
	var ids []string
	for id, s := range r.sessions {
		if s.LastActivity.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func generateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
