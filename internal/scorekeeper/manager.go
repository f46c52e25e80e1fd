package scorekeeper

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/openside/scorekeeper/internal/store"
)

// Manager hands out at most one live Session per game. The design
// assumes a single active writer per game; the manager enforces that
// within this process and the token check covers the rest.
type Manager struct {
	store Store
	cfg   Config

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session registry over the given store.
func NewManager(st Store, cfg Config) *Manager {
	return &Manager{
		store:    st,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Get returns the live session for a game, loading it on first use. The
// scorekeeper token is checked on every call; a mismatch surfaces
// store.ErrNotFound.
func (m *Manager) Get(ctx context.Context, gameID uuid.UUID, token string) (*Session, error) {
	m.mu.Lock()
	existing, ok := m.sessions[gameID]
	m.mu.Unlock()

	if ok {
		if existing.Game().ScorekeeperToken != token {
			return nil, store.ErrNotFound
		}
		return existing, nil
	}

	session, err := Load(ctx, m.store, gameID, token, m.cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if racer, ok := m.sessions[gameID]; ok {
		// Someone else loaded it first; keep theirs.
		session.Close()
		if racer.Game().ScorekeeperToken != token {
			return nil, store.ErrNotFound
		}
		return racer, nil
	}
	m.sessions[gameID] = session
	return session, nil
}

// HandleChange routes a store change notification to the session for
// that game, if one is live.
func (m *Manager) HandleChange(ctx context.Context, note store.ChangeNotification) {
	m.mu.Lock()
	session, ok := m.sessions[note.GameID]
	m.mu.Unlock()

	if ok {
		_ = session.HandleChange(ctx, note)
	}
}

// Close tears down every live session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
