// Package bootstrap brings up shared infrastructure before a bot starts serving.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/pager/core/config"
	coredatabase "github.com/m3rciful/pager/core/database"
	"github.com/m3rciful/pager/core/logger"
	"github.com/m3rciful/pager/core/telegram/state"
)

// Options selects which pieces of infrastructure Run initialises.
// Zero-valued hooks fall back to the core implementations.
type Options struct {
	Config *coreconfig.Config
	// Database is nil when the bot runs without PostgreSQL.
	Database *coredatabase.Config
	// SkipMigrations leaves the schema untouched.
	SkipMigrations bool

	LoggerInit func(*coreconfig.Config) error
	Connect    func(context.Context, coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(context.Context, coredatabase.Config) error
	DialRedis  func(ctx context.Context, url string) (*redis.Client, error)
}

// Result carries the initialised infrastructure.
type Result struct {
	DB       *sqlx.DB
	Sessions state.Manager

	closers []func() error
}

// Close releases connections opened by Run.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Run initialises logging, the database with its migrations, and the FSM session store.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init: %w", err)
	}

	res := &Result{}
	if opts.Database != nil {
		if err := res.openDatabase(ctx, opts); err != nil {
			_ = res.Close()
			return nil, err
		}
	}

	sessions, err := res.openSessions(ctx, opts)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	res.Sessions = sessions
	return res, nil
}

func (r *Result) openDatabase(ctx context.Context, opts Options) error {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, *opts.Database)
	if err != nil {
		return fmt.Errorf("bootstrap: database: %w", err)
	}
	r.DB = db
	r.closers = append(r.closers, db.Close)

	if opts.SkipMigrations {
		return nil
	}
	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, *opts.Database); err != nil {
		return fmt.Errorf("bootstrap: migrations: %w", err)
	}
	return nil
}

func (r *Result) openSessions(ctx context.Context, opts Options) (state.Manager, error) {
	cfg := opts.Config.Session
	if cfg.Backend != coreconfig.SessionRedis {
		return state.NewMemoryManager(), nil
	}
	dial := opts.DialRedis
	if dial == nil {
		dial = state.DialRedis
	}
	client, err := dial(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: session store: %w", err)
	}
	r.closers = append(r.closers, client.Close)
	return state.NewRedisManager(client, state.RedisOptions{KeyPrefix: cfg.KeyPrefix, TTL: cfg.TTL}), nil
}
