package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Manager keeps independent sessions keyed by id.
type Manager struct {
	pipeline *Pipeline
	recorder TurnRecorder

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(p *Pipeline, r TurnRecorder) *Manager {
	return &Manager{pipeline: p, recorder: r, sessions: make(map[string]*Session)}
}

func (m *Manager) Create() *Session {
	s := New(uuid.New().String(), m.pipeline, m.recorder)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return s.Close(ctx)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll releases every session, returning the first error.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var first error
	for _, s := range sessions {
		if err := s.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Usage reports how many sessions hold an index and the total number of
// chunks indexed across them.
func (m *Manager) Usage() (videos, chunks int) {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.mu.RLock()
		idx := s.state.idx
		s.mu.RUnlock()
		if idx != nil {
			videos++
			chunks += idx.Size()
		}
	}
	return videos, chunks
}
