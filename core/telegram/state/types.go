package state

import (
	"context"
	"strconv"
)

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state and temporary data for a user.
type Session struct {
	State State
	Data  map[string]string
}

func newSession() Session {
	return Session{State: StateIdle, Data: make(map[string]string)}
}

// Active reports whether the session is in the middle of a conversation.
func (s Session) Active() bool {
	return s.State != "" && s.State != StateIdle
}

// Value returns a stored field.
func (s Session) Value(key string) (string, bool) {
	v, ok := s.Data[key]
	return v, ok
}

// Int64 returns a stored field parsed as a base-10 integer.
func (s Session) Int64(key string) (int64, bool) {
	v, ok := s.Data[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s Session) clone() Session {
	out := Session{State: s.State, Data: make(map[string]string, len(s.Data))}
	for k, v := range s.Data {
		out.Data[k] = v
	}
	return out
}

// Manager persists sessions keyed by Telegram user id.
type Manager interface {
	// Get returns the user's session, or an idle empty session when none exists.
	Get(ctx context.Context, userID int64) (Session, error)
	// Update sets the state and merges fields in one step.
	Update(ctx context.Context, userID int64, st State, fields map[string]string) error
	// SetState changes only the state.
	SetState(ctx context.Context, userID int64, st State) error
	// Clear removes the whole session, returning the user to idle.
	Clear(ctx context.Context, userID int64) error
}
