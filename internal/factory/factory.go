package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/accounts"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/identity"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/leaderboard"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/linker"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registration"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registry"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/memory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/postgres"
	redisstorage "github.com/John-Michael-Goco/CampusGoWeb/internal/storage/redis"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeSQLite   = "sqlite"
	StorageTypePostgres = "postgres"
	StorageTypeRedis    = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock

	// Services
	Registry     *registry.Service
	Matcher      *identity.Matcher
	Linker       *linker.Linker
	Leaderboard  *leaderboard.Service
	AuthService  *auth.Service
	Accounts     *accounts.Service
	Registration *registration.Service
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service.
	// Secret is required; other zero fields take auth.DefaultConfig() values.
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// PostgresURL is the connection string (required if StorageType is "postgres")
	PostgresURL string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, clock.New(), cfg.AuthConfig, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func openStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	case StorageTypePostgres:
		if cfg.PostgresURL == "" {
			return nil, errors.New("PostgresURL required when StorageType is postgres")
		}
		return postgres.Open(ctx, cfg.PostgresURL)
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'sqlite', 'postgres' or 'redis'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, authCfg auth.Config, logger *slog.Logger) (*App, error) {
	authService, err := auth.New(store, clk, authCfg, logger)
	if err != nil {
		return nil, err
	}

	matcher := identity.NewMatcher(store, logger)
	accountLinker := linker.New(store, clk, linker.Config{BcryptCost: authCfg.BcryptCost}, logger)

	return &App{
		Storage:      store,
		Clock:        clk,
		Registry:     registry.New(store, clk, logger),
		Matcher:      matcher,
		Linker:       accountLinker,
		Leaderboard:  leaderboard.New(store),
		AuthService:  authService,
		Accounts:     accounts.New(store, logger),
		Registration: registration.New(matcher, accountLinker, authService, logger),
	}, nil
}
