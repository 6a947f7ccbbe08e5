package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/callbacks"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute routes every inline button press through the registry.
func CallbackRoute(reg *tg.Registry) tg.Route {
	h := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		key := callbacks.Key(c)
		s := summary{
			name:   handlerName("callback", key),
			start:  time.Now(),
			extras: []slog.Attr{slog.String("cb_key", key)},
		}

		if cb, ok := reg.Callback(key); ok {
			return run(c, s, func() error {
				if err := cb(c); err != nil {
					return err
				}
				return c.Respond()
			})
		}

		s.outcome = "not_found"
		return run(c, s, func() error {
			if nf := reg.CallbackNotFound(); nf != nil {
				return nf(c)
			}
			return c.Respond()
		})
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: wrap(h)}
}
