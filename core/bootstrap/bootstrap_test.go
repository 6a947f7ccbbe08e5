package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/pager/core/config"
	coredatabase "github.com/m3rciful/pager/core/database"
	"github.com/m3rciful/pager/core/telegram/state"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMemorySessionsWithoutDatabase(t *testing.T) {
	cfg := &coreconfig.Config{Session: coreconfig.SessionConfig{Backend: coreconfig.SessionMemory}}
	res, err := Run(context.Background(), Options{Config: cfg, LoggerInit: noLogger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Close() })

	assert.Nil(t, res.DB)
	require.NotNil(t, res.Sessions)
	require.NoError(t, res.Sessions.SetState(context.Background(), 1, "x"))
}

func TestRunRedisSessions(t *testing.T) {
	mini := miniredis.RunT(t)
	cfg := &coreconfig.Config{Session: coreconfig.SessionConfig{
		Backend:   coreconfig.SessionRedis,
		RedisURL:  "redis://" + mini.Addr(),
		KeyPrefix: "test",
	}}
	res, err := Run(context.Background(), Options{Config: cfg, LoggerInit: noLogger})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, res.Sessions.Update(ctx, 9, "register.nickname", map[string]string{"number_group": "3"}))
	s, err := res.Sessions.Get(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, state.State("register.nickname"), s.State)
	assert.True(t, mini.Exists("test:9"))
	require.NoError(t, res.Close())
}

func TestRunDatabaseFailureStops(t *testing.T) {
	errDown := errors.New("db down")
	var migrated bool
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   &coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, errDown
		},
		Migrate: func(context.Context, coredatabase.Config) error {
			migrated = true
			return nil
		},
	})
	assert.ErrorIs(t, err, errDown)
	assert.False(t, migrated)
}

func TestRunLoggerFailure(t *testing.T) {
	errLog := errors.New("no sink")
	_, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errLog },
	})
	assert.ErrorIs(t, err, errLog)
}
