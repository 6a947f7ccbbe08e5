// Package telegram assembles a telebot bot from a registry, routes and middleware and runs it.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/pager/core/config"
	"github.com/m3rciful/pager/core/logger"
	tghelpers "github.com/m3rciful/pager/core/telegram/helpers"
	tgsender "github.com/m3rciful/pager/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware registered through bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint (command string or tele.On* constant).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures Run.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	Dispatcher tgsender.Options
	HTTP       HTTPClientOptions

	// OnStart runs after routes are bound and before polling starts.
	OnStart func(ctx context.Context, bot *tele.Bot) error
	// OnStop runs after polling stops.
	OnStop func(ctx context.Context) error
}

// Run builds the bot and serves updates until ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: BuildHTTPClient(opts.HTTP),
		OnError: func(err error, c tele.Context) {
			ctx := context.Background()
			if c != nil {
				ctx = tghelpers.BuildContext(c)
			}
			logger.TG.LogAttrs(ctx, slog.LevelError, "handler error",
				slog.String("event", "tg.error"),
				slog.String("status", "fail"),
				slog.String("err", tgsender.Redact(err)),
			)
		},
	})
	if err != nil {
		return fmt.Errorf("telegram: bot init: %w", err)
	}
	logger.TG.LogAttrs(ctx, slog.LevelInfo, "bot ready",
		slog.String("event", "bot.ready"),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.String("username", bot.Me.Username),
		slog.Duration("duration", logger.Took(start)),
	)

	if cfg.Telegram.RunMode == coreconfig.RunModeLongpoll {
		if err := bot.RemoveWebhook(false); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "webhook cleanup",
				slog.String("event", "webhook.delete"),
				slog.String("status", "fail"),
				slog.String("err", tgsender.Redact(err)),
			)
		}
	}

	dispatcher := tgsender.NewDispatcher(opts.Dispatcher)
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		tghelpers.SetDispatcher(nil)
		dispatcher.Close()
	}()

	Bind(bot, opts.Middlewares, opts.Routes)
	_ = InitBotCommands(bot, reg)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, bot); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}

	if opts.OnStop != nil {
		if err := opts.OnStop(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Router is the part of tele.Bot used to bind middleware and handlers.
type Router interface {
	Use(middleware ...tele.MiddlewareFunc)
	Handle(endpoint any, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

// Bind registers middlewares then routes on r, skipping empty entries.
func Bind(r Router, mws []Middleware, routes []Route) {
	for _, mw := range mws {
		if mw.Use != nil {
			r.Use(mw.Use)
		}
	}
	bound := 0
	for _, route := range routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		r.Handle(route.Endpoint, route.Handler)
		bound++
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "tg.wire",
		slog.String("event", "routes.bound"),
		slog.Int("middlewares", len(mws)),
		slog.Int("routes", bound),
	)
}
