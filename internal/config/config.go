// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

// Config is the server configuration
type Config struct {
	HTTPHost            string        `env:"CAMPUS_HTTP_HOST"`
	HTTPPort            int           `env:"CAMPUS_HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"CAMPUS_HTTP_READ_TIMEOUT"     envDefault:"15s"`
	HTTPWriteTimeout    time.Duration `env:"CAMPUS_HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPShutdownTimeout time.Duration `env:"CAMPUS_HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel            string        `env:"CAMPUS_LOG_LEVEL"             envDefault:"info"`

	// CORSAllowedOrigins is a comma-separated list; "*" allows any origin
	CORSAllowedOrigins []string `env:"CAMPUS_CORS_ALLOWED_ORIGINS"  envSeparator:"," envDefault:"*"`
	RateLimitPerMinute int      `env:"CAMPUS_RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	Storage     string `env:"CAMPUS_STORAGE"      envDefault:"memory"`
	SQLitePath  string `env:"CAMPUS_SQLITE_PATH"  envDefault:"campus.db"`
	PostgresURL string `env:"CAMPUS_POSTGRES_URL"`
	RedisURL    string `env:"REDIS_URL"`

	TokenSecret string        `env:"CAMPUS_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"CAMPUS_TOKEN_TTL"    envDefault:"24h"`
	PageSize    int           `env:"CAMPUS_PAGE_SIZE"    envDefault:"10"`

	AdminHandle   string `env:"CAMPUS_ADMIN_HANDLE"`
	AdminEmail    string `env:"CAMPUS_ADMIN_EMAIL"`
	AdminPassword string `env:"CAMPUS_ADMIN_PASSWORD"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFrom parses the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("CAMPUS_POSTGRES_URL is required when CAMPUS_STORAGE=postgres"))
		}
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CAMPUS_STORAGE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CAMPUS_STORAGE %q", c.Storage))
	}

	if c.TokenSecret == "" {
		errs = append(errs, errors.New("CAMPUS_TOKEN_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("CAMPUS_TOKEN_TTL must be positive"))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, errors.New("CAMPUS_PAGE_SIZE must be between 1 and 100"))
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, errors.New("CAMPUS_HTTP_PORT must be a valid port"))
	}
	if c.HTTPReadTimeout <= 0 || c.HTTPWriteTimeout <= 0 || c.HTTPShutdownTimeout <= 0 {
		errs = append(errs, errors.New("CAMPUS_HTTP_*_TIMEOUT values must be positive"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("CAMPUS_RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	admin := []string{c.AdminHandle, c.AdminEmail, c.AdminPassword}
	set := 0
	for _, v := range admin {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(admin) {
		errs = append(errs, errors.New("CAMPUS_ADMIN_HANDLE, CAMPUS_ADMIN_EMAIL and CAMPUS_ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

// HasAdmin reports whether a bootstrap admin is configured
func (c Config) HasAdmin() bool {
	return c.AdminHandle != ""
}

// SlogLevel converts LogLevel to a slog.Level
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid CAMPUS_LOG_LEVEL %q", c.LogLevel)
	}
	return level, nil
}
