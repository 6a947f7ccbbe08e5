package middleware

import (
	"log/slog"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures the admin gate.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether c was sent by the configured admin.
// A zero AdminID means no one is an admin.
func (o AdminOptions) IsAdmin(c tele.Context) bool {
	u := c.Sender()
	return o.AdminID != 0 && u != nil && u.ID == o.AdminID
}

// AdminOnly lets only the configured admin reach next.
func AdminOnly(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin(c) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "access.denied",
				slog.String("event", "access.denied"),
				slog.String("outcome", "rejected"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
