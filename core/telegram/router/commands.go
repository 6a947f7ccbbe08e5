package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/pager/core/logger"
	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/commands"
	"github.com/m3rciful/pager/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandOptions configures command routes.
type CommandOptions struct {
	Admin middleware.AdminOptions
}

// CommandRoutes binds every registered slash command to its endpoint.
func CommandRoutes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for name, cmd := range cmds {
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler:  wrap(commandHandler(name, cmd, opts)),
		})
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "routes.commands"),
		slog.Int("commands", len(cmds)),
		slog.Int("callbacks", len(reg.CallbackKeys())),
	)
	return routes
}

func commandHandler(name string, cmd commands.Command, opts CommandOptions) tele.HandlerFunc {
	h := cmd.Handler
	if cmd.AdminOnly {
		h = middleware.AdminOnly(opts.Admin)(h)
	}
	return func(c tele.Context) error {
		return run(c, summary{name: handlerName("cmd", name), start: time.Now()}, func() error {
			return h(c)
		})
	}
}
