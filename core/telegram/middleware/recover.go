package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// Recover turns a handler panic into a logged error so the bot keeps serving.
func Recover(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err = fmt.Errorf("telegram: handler panic: %v", r)
			logger.TG.LogAttrs(tghelpers.BuildContext(c), slog.LevelError, "panic recovered",
				slog.String("event", "tg.panic"),
				slog.String("status", "fail"),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
