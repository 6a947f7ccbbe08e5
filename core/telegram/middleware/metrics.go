package middleware

import tele "gopkg.in/telebot.v4"

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// countingContext counts outgoing messages and whether any carried a keyboard.
type countingContext struct{ tele.Context }

func (m countingContext) count(opts []any, err error) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(messagesKey).(int)
	m.Set(messagesKey, n+1)
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			if v != nil {
				m.Set(keyboardKey, true)
			}
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				m.Set(keyboardKey, true)
			}
		}
	}
	return nil
}

func (m countingContext) Send(what any, opts ...any) error {
	return m.count(opts, m.Context.Send(what, opts...))
}

func (m countingContext) Reply(what any, opts ...any) error {
	return m.count(opts, m.Context.Reply(what, opts...))
}

func (m countingContext) Edit(what any, opts ...any) error {
	return m.count(opts, m.Context.Edit(what, opts...))
}

func (m countingContext) EditOrSend(what any, opts ...any) error {
	return m.count(opts, m.Context.EditOrSend(what, opts...))
}

func (m countingContext) EditOrReply(what any, opts ...any) error {
	return m.count(opts, m.Context.EditOrReply(what, opts...))
}

// Metrics wraps c so handler summaries can report how many messages were sent.
func Metrics(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(countingContext{Context: c})
	}
}

// Counters returns the number of sent messages and whether a keyboard was attached.
func Counters(c tele.Context) (messages int, keyboard bool) {
	messages, _ = c.Get(messagesKey).(int)
	keyboard, _ = c.Get(keyboardKey).(bool)
	return messages, keyboard
}
