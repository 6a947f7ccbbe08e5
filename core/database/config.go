package database

import (
	"fmt"
	"net/url"
	"strings"
)

// Config holds database connection settings shared across bots.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// MigrationsDir is resolved against the working directory when relative; empty -> "migrations".
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// DSN returns the keyword/value connection string understood by lib/pq.
// Empty settings are omitted so lib/pq falls back to its defaults.
func (c Config) DSN() string {
	pairs := []struct{ key, val string }{
		{"user", c.User},
		{"password", c.Password},
		{"host", c.Host},
		{"port", c.Port},
		{"dbname", c.Name},
		{"sslmode", c.sslMode()},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.val != "" {
			parts = append(parts, p.key+"="+quoteDSN(p.val))
		}
	}
	return strings.Join(parts, " ")
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteDSN(v string) string {
	if strings.ContainsAny(v, ` '\`) {
		return "'" + dsnEscaper.Replace(v) + "'"
	}
	return v
}

// ConfigFromURL parses a postgres:// URL into Config.
func ConfigFromURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return Config{}, fmt.Errorf("parse database url: unsupported scheme %q", u.Scheme)
	}
	cfg := Config{
		Host:    u.Hostname(),
		Port:    u.Port(),
		User:    u.User.Username(),
		Name:    strings.TrimPrefix(u.Path, "/"),
		SSLMode: u.Query().Get("sslmode"),
	}
	cfg.Password, _ = u.User.Password()
	if cfg.Port == "" {
		cfg.Port = "5432"
	}
	return cfg, nil
}

// URL returns the postgres:// form required by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.sslMode()),
	}
	return u.String()
}

func (c Config) sslMode() string {
	if c.SSLMode == "" {
		return "disable"
	}
	return c.SSLMode
}
