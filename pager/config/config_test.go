package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/pager/core/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPostgres(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: t
  admin_id: 42
database:
  host: localhost
  user: pager
  name: pager
storage:
  query_timeout: 2s
`)
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "t", cfg.CoreConfig().Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, coreconfig.RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Storage.QueryTimeout)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "secret", cfg.Database.Password)
}

func TestLoadMemoryNeedsNoDatabase(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: t
storage:
  driver: Memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, defaultQueryTimeout, cfg.Storage.QueryTimeout)
}

func TestNormalizeRejectsInvalid(t *testing.T) {
	core := coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "t"}}
	cases := map[string]Config{
		"no token":         {Storage: StorageConfig{Driver: DriverMemory}},
		"unknown driver":   {Config: core, Storage: StorageConfig{Driver: "sqlite"}},
		"postgres no host": {Config: core},
		"negative timeout": {Config: core, Storage: StorageConfig{Driver: DriverMemory, QueryTimeout: -time.Second}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			c := cfg
			assert.Error(t, Normalize(&c))
		})
	}
	assert.Error(t, Normalize(nil))
}
