package state

import (
	"context"
	"sync"
)

type memoryManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryManager constructs an in-memory Manager implementation for tests and single-instance bots.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
	}
}

// Get returns a copy of the session so callers cannot mutate shared state.
func (m *memoryManager) Get(_ context.Context, userID int64) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.sessions[userID]; ok {
		return session.clone(), nil
	}
	return newSession(), nil
}

// Update sets the state and merges fields, creating the session if necessary.
func (m *memoryManager) Update(_ context.Context, userID int64, st State, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.session(userID)
	session.State = st
	for k, v := range fields {
		session.Data[k] = v
	}
	return nil
}

// SetState sets the FSM state for the given user.
func (m *memoryManager) SetState(_ context.Context, userID int64, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(userID).State = st
	return nil
}

// Clear removes the entire session for a user.
func (m *memoryManager) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// session must be called with mu held for writing.
func (m *memoryManager) session(userID int64) *Session {
	session, ok := m.sessions[userID]
	if !ok {
		s := newSession()
		session = &s
		m.sessions[userID] = session
	}
	return session
}
