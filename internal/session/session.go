// Package session scopes cart and draft state to one operator session.
// Two browser tabs against the same terminal get independent carts.
package session

import (
	"sync"
	"time"

	"abasto/internal/core/apperror"
	"abasto/internal/core/id"

	"abasto/internal/cart"
	"abasto/internal/replenish"
)

// Session owns one operator's cart and replenishment draft. Access goes
// through Do, which serializes the multi-step read-modify-write sequences
// the handlers perform.
type Session struct {
	ID        id.ID
	CreatedAt time.Time

	mu         sync.Mutex
	cart       *cart.Aggregator
	drafts     *replenish.DraftList
	lastActive time.Time
}

// Do runs fn with exclusive access to the session's cart and draft list.
func (s *Session) Do(fn func(c *cart.Aggregator, d *replenish.DraftList) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return fn(s.cart, s.drafts)
}

// LastActive returns the time of the last Do call.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Manager tracks live sessions by id.
type Manager struct {
	view cart.CatalogView

	mu       sync.RWMutex
	sessions map[id.ID]*Session
}

// NewManager creates an empty manager over the given catalog view.
func NewManager(view cart.CatalogView) *Manager {
	return &Manager{
		view:     view,
		sessions: make(map[id.ID]*Session),
	}
}

// Create starts a new session with an empty cart and draft.
func (m *Manager) Create() *Session {
	now := time.Now()
	s := &Session{
		ID:         id.New(),
		CreatedAt:  now,
		cart:       cart.New(m.view),
		drafts:     replenish.NewDraftList(m.view),
		lastActive: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns the session by id.
func (m *Manager) Get(sid id.ID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[sid]; ok {
		return s, nil
	}
	return nil, apperror.NewNotFound("session", sid.String())
}

// Delete removes a session.
func (m *Manager) Delete(sid id.ID) {
	m.mu.Lock()
	delete(m.sessions, sid)
	m.mu.Unlock()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Purge drops sessions idle longer than maxIdle and reports how many went.
func (m *Manager) Purge(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for sid, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, sid)
			n++
		}
	}
	return n
}
