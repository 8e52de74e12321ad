package quiz

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionNotFound means the session id is unknown or already discarded.
var ErrSessionNotFound = errors.New("quiz session not found")

// Manager tracks live sessions for the HTTP surface. Sessions themselves are
// single-threaded state machines; the manager serializes access to each one.
type Manager struct {
	mu       sync.Mutex
	engine   *Engine
	sessions map[string]*Session
}

func NewManager(engine *Engine) *Manager {
	return &Manager{
		engine:   engine,
		sessions: make(map[string]*Session),
	}
}

// Start loads a new session for a module and registers it.
func (m *Manager) Start(ctx context.Context, moduleID string) (*Session, error) {
	session, err := m.engine.Load(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	return session, nil
}

// With runs fn against one session while holding the manager lock, keeping
// the session's run-to-completion semantics under concurrent HTTP calls.
func (m *Manager) With(sessionID string, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	fn(session)
	return nil
}

// End discards a session.
func (m *Manager) End(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
