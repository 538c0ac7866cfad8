// Package session keeps per-client dashboard states in memory with an idle
// expiry.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/ranking"
	"github.com/soltixdb/casetrend/internal/series"
	"github.com/soltixdb/casetrend/internal/view"
)

var log = logging.Global().With("component", "session")

// Session is one dashboard owned by a client
type Session struct {
	ID        string
	State     *view.State
	CreatedAt time.Time

	mu        sync.Mutex
	expiresAt time.Time
}

// ExpiresAt returns when the session expires if left idle
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

func (s *Session) touch(ttl time.Duration, now time.Time) {
	s.mu.Lock()
	s.expiresAt = now.Add(ttl)
	s.mu.Unlock()
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expiresAt)
}

// Manager stores sessions and evicts idle ones
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewManager creates a manager. Sessions idle for ttl are removed by a
// background sweep every cleanupInterval.
func NewManager(ttl, cleanupInterval time.Duration) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}

	if cleanupInterval > 0 {
		go m.cleanup(cleanupInterval)
	}

	return m
}

// Create builds a new State against snap and stores it under a fresh ID
func (m *Manager) Create(snap *series.Snapshot, params view.Parameters, rule ranking.ExclusionRule) (*Session, error) {
	state, err := view.NewState(snap, params, rule)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		State:     state,
		CreatedAt: now,
		expiresAt: now.Add(m.ttl),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Debug("Session created", "session_id", s.ID)
	return s, nil
}

// Get returns a live session and extends its expiry
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, exists := m.sessions[id]
	m.mu.RUnlock()

	now := m.now()
	if !exists || s.expired(now) {
		return nil, false
	}
	s.touch(m.ttl, now)
	return s, true
}

// Delete removes a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Len returns the number of stored sessions, including expired ones not yet
// swept
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RebindAll moves every session onto snap. A session that fails to rebind
// keeps its previous table; the number of failures is returned.
func (m *Manager) RebindAll(snap *series.Snapshot) int {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	failed := 0
	for _, s := range sessions {
		if err := s.State.Rebind(snap); err != nil {
			failed++
			log.Warn("Failed to rebind session", "session_id", s.ID, "version", snap.Version, "error", err)
		}
	}
	return failed
}

// Sweep removes expired sessions and returns how many were removed
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// cleanup periodically removes expired sessions
func (m *Manager) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Debug("Expired sessions removed", "count", n)
			}
		case <-m.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Stats returns session statistics
func (m *Manager) Stats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expired := 0
	now := m.now()
	for _, s := range m.sessions {
		if s.expired(now) {
			expired++
		}
	}

	return map[string]interface{}{
		"total_sessions":   len(m.sessions),
		"expired_sessions": expired,
		"active_sessions":  len(m.sessions) - expired,
		"ttl_seconds":      m.ttl.Seconds(),
	}
}
