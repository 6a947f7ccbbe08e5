// Package teletest offers an in-memory tele.Context for exercising handlers without the Bot API.
package teletest

import (
	"fmt"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound call made through the fake context.
type Sent struct {
	What any
	Opts []any
}

// Text returns the message body when What is a string.
func (s Sent) Text() string {
	if t, ok := s.What.(string); ok {
		return t
	}
	return fmt.Sprint(s.What)
}

// Markup returns the reply markup attached to the call, if any.
func (s Sent) Markup() *tele.ReplyMarkup {
	for _, o := range s.Opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// Context implements the tele.Context methods used by handlers and middleware.
// Calling any other method panics through the nil embedded interface.
type Context struct {
	tele.Context

	UpdateID int
	User     *tele.User
	ChatInfo *tele.Chat
	Msg      *tele.Message
	Cb       *tele.Callback

	mu        sync.Mutex
	store     map[string]any
	sent      []Sent
	responses int
}

// NewMessage builds a private-chat text message from userID.
// Text starting with "/" is split into command and payload the way telebot does.
func NewMessage(userID int64, text string) *Context {
	user := &tele.User{ID: userID, Username: fmt.Sprintf("user%d", userID), FirstName: "Test"}
	chat := &tele.Chat{ID: userID, Type: tele.ChatPrivate}
	msg := &tele.Message{ID: 1, Sender: user, Chat: chat, Text: text}
	if strings.HasPrefix(text, "/") {
		_, payload, _ := strings.Cut(text, " ")
		msg.Payload = strings.TrimSpace(payload)
	}
	return &Context{UpdateID: 1, User: user, ChatInfo: chat, Msg: msg}
}

// NewCallback builds a callback press with the given unique key and data.
func NewCallback(userID int64, unique, data string) *Context {
	c := NewMessage(userID, "")
	c.Cb = &tele.Callback{ID: "cb", Sender: c.User, Unique: unique, Data: data, Message: c.Msg}
	c.Msg = nil
	return c
}

func (c *Context) Sender() *tele.User      { return c.User }
func (c *Context) Chat() *tele.Chat        { return c.ChatInfo }
func (c *Context) Message() *tele.Message  { return c.Msg }
func (c *Context) Callback() *tele.Callback { return c.Cb }

func (c *Context) Update() tele.Update {
	return tele.Update{ID: c.UpdateID, Message: c.Msg, Callback: c.Cb}
}

func (c *Context) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

func (c *Context) Data() string {
	switch {
	case c.Cb != nil:
		return c.Cb.Data
	case c.Msg != nil:
		return c.Msg.Payload
	}
	return ""
}

func (c *Context) Args() []string {
	switch {
	case c.Msg != nil && c.Msg.Payload != "":
		return strings.Fields(c.Msg.Payload)
	case c.Cb != nil && c.Cb.Data != "":
		return strings.Split(c.Cb.Data, "|")
	}
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = val
}

func (c *Context) record(what any, opts []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, Sent{What: what, Opts: opts})
	return nil
}

func (c *Context) Send(what any, opts ...any) error        { return c.record(what, opts) }
func (c *Context) Reply(what any, opts ...any) error       { return c.record(what, opts) }
func (c *Context) Edit(what any, opts ...any) error        { return c.record(what, opts) }
func (c *Context) EditOrSend(what any, opts ...any) error  { return c.record(what, opts) }
func (c *Context) EditOrReply(what any, opts ...any) error { return c.record(what, opts) }

func (c *Context) Respond(_ ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses++
	return nil
}

// Sent returns every outbound call in order.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Last returns the most recent outbound call, or a zero Sent when nothing was sent.
func (c *Context) Last() Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return Sent{}
	}
	return c.sent[len(c.sent)-1]
}

// Responses counts callback acknowledgements.
func (c *Context) Responses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}
