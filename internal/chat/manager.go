package chat

import (
	"context"
	"sync"
	"time"

	"github.com/comigor/portfolio-assistant/internal/logger"
)

// Manager owns the live sessions.
type Manager struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty Manager whose sessions share deps.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps.withDefaults(), sessions: make(map[string]*Session)}
}

// Create starts and registers a new session.
func (m *Manager) Create() (*Session, error) {
	s, err := NewSession(m.deps)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	logger.L.Info("session created", "session", s.ID())
	return s, nil
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete closes and forgets a session, dropping its transcript.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
		if m.deps.Recorder != nil {
			m.deps.Recorder.Delete(context.Background(), id)
		}
		logger.L.Info("session deleted", "session", id)
	}
	return ok
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes sessions idle for longer than maxIdle. Sessions with a
// pending reply are kept.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := m.deps.Now().Add(-maxIdle)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if !s.Pending() && s.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		m.Delete(id)
	}
	if len(stale) > 0 {
		logger.L.Info("swept idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) error {
	if interval <= 0 || maxIdle <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Sweep(maxIdle)
		}
	}
}
