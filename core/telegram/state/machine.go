package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const sessionKey = "fsm_session"

// Machine routes updates of users with an active conversation to the handler registered for their state.
type Machine struct {
	mgr Manager

	mu       sync.RWMutex
	handlers map[State]tele.HandlerFunc
}

// NewMachine binds a handler registry to the given session manager.
func NewMachine(mgr Manager) *Machine {
	return &Machine{mgr: mgr, handlers: make(map[State]tele.HandlerFunc)}
}

// Manager exposes the underlying session store.
func (m *Machine) Manager() Manager {
	return m.mgr
}

// Handle associates a state with its handler.
func (m *Machine) Handle(st State, h tele.HandlerFunc) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[st] = h
}

func (m *Machine) handler(st State) (tele.HandlerFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[st]
	return h, ok
}

// InProgress loads the sender's session into c and reports whether a registered step awaits input.
func (m *Machine) InProgress(c tele.Context) bool {
	session, err := m.Session(c)
	if err != nil {
		return false
	}
	if !session.Active() {
		return false
	}
	_, ok := m.handler(session.State)
	return ok
}

// Dispatch executes the handler registered for the sender's current state, if any.
func (m *Machine) Dispatch(c tele.Context) error {
	session, err := m.Session(c)
	if err != nil {
		return err
	}
	ctx := tghelpers.BuildContext(c)
	h, ok := m.handler(session.State)
	logger.FSM.LogAttrs(ctx, slog.LevelDebug, "fsm.dispatch",
		slog.String("event", "fsm.dispatch"),
		slog.String("state", string(session.State)),
		slog.Bool("matched", ok),
	)
	if !ok {
		return nil
	}
	return h(c)
}

// Session returns the sender's session, cached on c for the lifetime of the update.
func (m *Machine) Session(c tele.Context) (Session, error) {
	if s, ok := SessionFrom(c); ok {
		return s, nil
	}
	ctx := tghelpers.BuildContext(c)
	s, err := m.mgr.Get(ctx, senderID(c))
	if err != nil {
		logger.FSM.LogAttrs(ctx, slog.LevelError, "fsm.load",
			slog.String("event", "fsm.load"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return Session{}, err
	}
	c.Set(sessionKey, s)
	return s, nil
}

// Transition moves the sender to next, storing fields alongside.
func (m *Machine) Transition(c tele.Context, next State, fields map[string]string) error {
	ctx := tghelpers.BuildContext(c)
	userID := senderID(c)
	prev, _ := SessionFrom(c)
	if err := m.mgr.Update(ctx, userID, next, fields); err != nil {
		m.logTransition(ctx, prev.State, next, err)
		return err
	}

	cached := prev.clone()
	if cached.Data == nil {
		cached.Data = make(map[string]string)
	}
	cached.State = next
	for k, v := range fields {
		cached.Data[k] = v
	}
	c.Set(sessionKey, cached)
	m.logTransition(ctx, prev.State, next, nil)
	return nil
}

// Reset drops the sender's session entirely.
func (m *Machine) Reset(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	prev, _ := SessionFrom(c)
	err := m.mgr.Clear(ctx, senderID(c))
	if err == nil {
		c.Set(sessionKey, newSession())
	}
	m.logTransition(ctx, prev.State, StateIdle, err)
	return err
}

func (m *Machine) logTransition(ctx context.Context, from, to State, err error) {
	level := slog.LevelDebug
	attrs := []slog.Attr{
		slog.String("event", "fsm.transition"),
		slog.String("status", logger.Status(err)),
		slog.String("state", string(from)),
		slog.String("next_state", string(to)),
	}
	if err != nil {
		level = slog.LevelError
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	logger.FSM.LogAttrs(ctx, level, "fsm.transition", attrs...)
}

// SessionFrom returns the session cached on c by Machine, if any.
func SessionFrom(c tele.Context) (Session, bool) {
	s, ok := c.Get(sessionKey).(Session)
	return s, ok
}

func senderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}
