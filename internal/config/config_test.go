package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"CAMPUS_TOKEN_SECRET": "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 15*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPWriteTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.False(t, cfg.HasAdmin())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"CAMPUS_TOKEN_SECRET":          "s3cret",
		"CAMPUS_HTTP_PORT":             "9090",
		"CAMPUS_HTTP_READ_TIMEOUT":     "5s",
		"CAMPUS_LOG_LEVEL":             "debug",
		"CAMPUS_STORAGE":               "redis",
		"REDIS_URL":                    "redis://localhost:6379/1",
		"CAMPUS_TOKEN_TTL":             "90m",
		"CAMPUS_PAGE_SIZE":             "25",
		"CAMPUS_CORS_ALLOWED_ORIGINS":  "https://campus.example,http://localhost:5173",
		"CAMPUS_RATE_LIMIT_PER_MINUTE": "0",
		"CAMPUS_ADMIN_HANDLE":          "admin",
		"CAMPUS_ADMIN_EMAIL":           "admin@campus.edu",
		"CAMPUS_ADMIN_PASSWORD":        "adminpass",
	})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.HTTPReadTimeout)
	assert.Equal(t, StorageRedis, cfg.Storage)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, []string{"https://campus.example", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 0, cfg.RateLimitPerMinute)
	assert.True(t, cfg.HasAdmin())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := map[string]map[string]string{
		"missing secret":     {},
		"unknown storage":    {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_STORAGE": "mongo"},
		"postgres no url":    {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_STORAGE": "postgres"},
		"redis no url":       {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_STORAGE": "redis"},
		"page size too big":  {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_PAGE_SIZE": "500"},
		"bad log level":      {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_LOG_LEVEL": "chatty"},
		"partial admin":      {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_ADMIN_HANDLE": "admin"},
		"non-numeric port":   {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_HTTP_PORT": "http"},
		"non-positive ttl":   {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_TOKEN_TTL": "0s"},
		"port out of range":  {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_HTTP_PORT": "70000"},
		"malformed duration": {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_TOKEN_TTL": "soon"},
		"zero read timeout":  {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_HTTP_READ_TIMEOUT": "0s"},
		"negative rate":      {"CAMPUS_TOKEN_SECRET": "x", "CAMPUS_RATE_LIMIT_PER_MINUTE": "-1"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(vars)
			assert.Error(t, err)
		})
	}
}
