package session

import (
	"context"
	"slices"
	"sync"

	"github.com/akolanti/docgenie/internal/domain/ragErrors"
	"github.com/akolanti/docgenie/internal/metrics"
	"github.com/google/uuid"
)

// Manager owns the live sessions of one process.
type Manager struct {
	deps     Dependencies
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(deps Dependencies) *Manager {
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

func (m *Manager) Create() (*Session, error) {
	return m.CreateWithId(uuid.NewString())
}

// CreateWithId returns the existing session when id is already taken.
func (m *Manager) CreateWithId(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	s, err := New(id, m.deps)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = s
	metrics.IncrementActiveSessions()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Lookup is Get with a NotFound error for missing ids.
func (m *Manager) Lookup(id string) (*Session, error) {
	s, ok := m.Get(id)
	if !ok {
		return nil, ragErrors.New(ragErrors.NotFound, "unknown session "+id, nil)
	}
	return s, nil
}

func (m *Manager) List() []Info {
	m.mu.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.mu.RUnlock()

	slices.SortFunc(infos, func(a, b Info) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})
	return infos
}

// Delete resets the session and forgets it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ragErrors.New(ragErrors.NotFound, "unknown session "+id, nil)
	}
	metrics.DecrementActiveSessions()
	return s.Reset(ctx)
}

// Close releases every session's index. Stored histories are kept.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		metrics.DecrementActiveSessions()
		_ = s.engine.Close(ctx)
	}
}
