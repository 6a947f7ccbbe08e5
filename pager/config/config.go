// Package config loads the game bot configuration: the shared core settings plus storage.
package config

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/pager/core/config"
	coredatabase "github.com/m3rciful/pager/core/database"
)

const (
	// DriverPostgres keeps game data in PostgreSQL.
	DriverPostgres = "postgres"
	// DriverMemory keeps game data in process memory; everything is lost on restart.
	DriverMemory = "memory"

	defaultQueryTimeout = 5 * time.Second
	defaultDBPort       = "5432"
)

// StorageConfig selects the game data backend.
type StorageConfig struct {
	Driver       string        `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	QueryTimeout time.Duration `yaml:"query_timeout" envconfig:"STORAGE_QUERY_TIMEOUT"`
}

// Config is the full pager configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
}

// CoreConfig exposes the embedded core settings.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates cfg and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" {
		driver = DriverPostgres
	}
	switch driver {
	case DriverPostgres:
		if err := normalizeDatabase(&cfg.Database); err != nil {
			return err
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: postgres, memory", cfg.Storage.Driver)
	}
	cfg.Storage.Driver = driver

	if cfg.Storage.QueryTimeout < 0 {
		return fmt.Errorf("storage.query_timeout must be >= 0")
	}
	if cfg.Storage.QueryTimeout == 0 {
		cfg.Storage.QueryTimeout = defaultQueryTimeout
	}
	return nil
}

func normalizeDatabase(db *coredatabase.Config) error {
	if strings.TrimSpace(db.Host) == "" {
		return fmt.Errorf("database.host is required when storage.driver is 'postgres'")
	}
	if strings.TrimSpace(db.Name) == "" {
		return fmt.Errorf("database.name is required when storage.driver is 'postgres'")
	}
	if strings.TrimSpace(db.Port) == "" {
		db.Port = defaultDBPort
	}
	if db.MaxConnections < 0 {
		return fmt.Errorf("database.max_connections must be >= 0")
	}
	return nil
}
