package router

import (
	"time"

	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FSM is the conversation engine consulted after command aliases.
type FSM interface {
	InProgress(c tele.Context) bool
	Dispatch(c tele.Context) error
}

// MessageOptions controls fallbacks for unmatched updates.
type MessageOptions struct {
	Admin        middleware.AdminOptions
	UnknownText  tele.HandlerFunc
	UnknownMedia tele.HandlerFunc
}

// MessageRoutes handles free text and media: plain-text command aliases first,
// so a trigger phrase restarts a conversation, then an active conversation,
// then fallbacks.
func MessageRoutes(fsm FSM, reg *tg.Registry, opts MessageOptions) []tg.Route {
	text := func(c tele.Context) error {
		start := time.Now()
		if reg != nil {
			if name, cmd, ok := reg.LookupCommand(c.Text()); ok {
				return commandHandler(name, cmd, CommandOptions{Admin: opts.Admin})(c)
			}
		}
		if fsm != nil && fsm.InProgress(c) {
			return run(c, summary{name: "fsm", start: start}, func() error {
				return fsm.Dispatch(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return run(c, summary{name: "fallback", start: start}, func() error {
					return fb(c)
				})
			}
		}
		if opts.UnknownText != nil {
			return run(c, summary{name: "unknown_text", start: start}, func() error {
				return opts.UnknownText(c)
			})
		}
		logSummary(c, summary{name: "unknown_text", start: start, status: "skip", outcome: "ok"}, nil)
		return nil
	}

	media := func(c tele.Context) error {
		start := time.Now()
		if fsm != nil && fsm.InProgress(c) {
			return run(c, summary{name: "fsm.media", start: start}, func() error {
				return fsm.Dispatch(c)
			})
		}
		if opts.UnknownMedia != nil {
			return run(c, summary{name: "unknown_media", start: start}, func() error {
				return opts.UnknownMedia(c)
			})
		}
		logSummary(c, summary{name: "unknown_media", start: start, status: "skip", outcome: "ok"}, nil)
		return nil
	}

	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(text)},
		{Endpoint: tele.OnMedia, Handler: wrap(media)},
	}
}
