package app

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pager/core/bootstrap"
	coreconfig "github.com/m3rciful/pager/core/config"
	coredatabase "github.com/m3rciful/pager/core/database"
	"github.com/m3rciful/pager/pager/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t", AdminID: 1}},
		Storage: config.StorageConfig{Driver: config.DriverMemory},
	}
	require.NoError(t, config.Normalize(cfg))
	return cfg
}

func TestNewWiresMemoryStorage(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(t), bootstrap.Options{LoggerInit: noLogger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, _, ok := a.Registry().LookupCommand("Зарегистрироваться")
	assert.True(t, ok)

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, a.cfg.CoreConfig(), opts.Config)

	endpoints := map[any]bool{}
	for _, r := range opts.Routes {
		endpoints[r.Endpoint] = true
	}
	for _, want := range []any{"/start", "/register", "/profile", "/credit", "/game_date", tele.OnText, tele.OnMedia, tele.OnCallback} {
		assert.True(t, endpoints[want], "missing route %v", want)
	}

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics"}, names)
}

func TestNewPostgresConnectFailure(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Storage.Driver = config.DriverPostgres
	cfg.Database = coredatabase.Config{Host: "db", Port: "5432", Name: "pager"}

	var connected coredatabase.Config
	_, err := New(context.Background(), cfg, bootstrap.Options{
		LoggerInit: noLogger,
		Connect: func(_ context.Context, db coredatabase.Config) (*sqlx.DB, error) {
			connected = db
			return nil, errors.New("refused")
		},
	})
	require.Error(t, err)
	assert.Equal(t, "db", connected.Host)
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(context.Background(), nil, bootstrap.Options{})
	assert.Error(t, err)
}
