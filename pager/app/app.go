// Package app wires configuration, infrastructure, storage and handlers into a runnable bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/pager/core/bootstrap"
	"github.com/m3rciful/pager/core/logger"
	tg "github.com/m3rciful/pager/core/telegram"
	"github.com/m3rciful/pager/core/telegram/middleware"
	"github.com/m3rciful/pager/core/telegram/router"
	tgsender "github.com/m3rciful/pager/core/telegram/sender"
	"github.com/m3rciful/pager/core/telegram/state"
	"github.com/m3rciful/pager/pager/config"
	"github.com/m3rciful/pager/pager/handlers"
	"github.com/m3rciful/pager/pager/service"
	"github.com/m3rciful/pager/pager/storage"
	"github.com/m3rciful/pager/pager/storage/memory"
	"github.com/m3rciful/pager/pager/storage/postgres"
)

// App is a bootstrapped pager bot.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    storage.Store
	registry *tg.Registry
	machine  *state.Machine
	fallback handlers.Fallbacks
}

// New brings up logging, storage and sessions, then registers every handler.
// hooks may override the bootstrap steps; its Config and Database are set by New.
func New(ctx context.Context, cfg *config.Config, hooks bootstrap.Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	hooks.Config = cfg.CoreConfig()
	hooks.Database = nil
	if cfg.Storage.Driver == config.DriverPostgres {
		db := cfg.Database
		hooks.Database = &db
	}
	infra, err := bootstrap.Run(ctx, hooks)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, infra: infra, registry: tg.NewRegistry()}
	if infra.DB != nil {
		a.store = postgres.New(infra.DB, cfg.Storage.QueryTimeout)
	} else {
		a.store = memory.New()
	}
	a.machine = state.NewMachine(infra.Sessions)

	h, err := handlers.New(handlers.Deps{
		Players:      service.NewPlayers(a.store),
		Games:        service.NewGames(a.store),
		Machine:      a.machine,
		QueryTimeout: cfg.Storage.QueryTimeout,
	})
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	if err := h.Register(a.registry); err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}
	a.registry.SetCallbackNotFound(a.fallback.UnknownCallback())

	logger.Info(ctx, "app", "app.wired",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("sessions", cfg.Session.Backend),
		slog.Int("commands", len(a.registry.Commands())),
	)
	return a, nil
}

// Registry exposes the registered commands and callbacks.
func (a *App) Registry() *tg.Registry {
	return a.registry
}

// TelegramRunOptions assembles middleware and routes for core/telegram.Run.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	core := a.cfg.CoreConfig()
	admin := middleware.AdminOptions{
		AdminID:  core.Telegram.AdminID,
		OnReject: a.fallback.AccessDenied(),
	}

	routes := router.CommandRoutes(a.registry, router.CommandOptions{Admin: admin})
	routes = append(routes, router.CallbackRoute(a.registry))
	routes = append(routes, router.MessageRoutes(a.machine, a.registry, router.MessageOptions{
		Admin:        admin,
		UnknownText:  a.fallback.UnknownText(),
		UnknownMedia: a.fallback.UnknownMedia(),
	})...)

	return tg.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: tg.DefaultMiddlewares(core, a.fallback.RateLimited()),
		Routes:      routes,
		Dispatcher:  tgsender.Options{MaxRetries: 2},
	}, nil
}

// Close releases the database and session store connections.
func (a *App) Close() error {
	return a.infra.Close()
}
