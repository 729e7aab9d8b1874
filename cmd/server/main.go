package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/config"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/factory"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	redisstorage "github.com/John-Michael-Goco/CampusGoWeb/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	factoryCfg := factory.Config{
		AuthConfig: auth.Config{
			Secret:   cfg.TokenSecret,
			TokenTTL: cfg.TokenTTL,
		},
		Logger:      logger,
		StorageType: cfg.Storage,
		SQLitePath:  cfg.SQLitePath,
		PostgresURL: cfg.PostgresURL,
	}
	if cfg.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(ctx, factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Storage.Close() }()

	if cfg.HasAdmin() {
		created, err := app.AuthService.EnsureAdmin(ctx, auth.AdminCredentials{
			Handle:   cfg.AdminHandle,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			logger.Error("failed to ensure admin account", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if !created {
			logger.Info("admin account already present", slog.String("handle", cfg.AdminHandle))
		}
	}

	go cleanRevokedTokens(ctx, app.AuthService, time.Hour)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:              logger,
		Storage:             app.Storage,
		AuthService:         app.AuthService,
		RegistrationService: app.Registration,
		RegistryService:     app.Registry,
		LeaderboardService:  app.Leaderboard,
		AccountsService:     app.Accounts,
		PageSize:            cfg.PageSize,
		AllowedOrigins:      cfg.CORSAllowedOrigins,
		RateLimitPerMinute:  cfg.RateLimitPerMinute,
		Clock:               app.Clock,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.HTTPHost
	serverConfig.Port = cfg.HTTPPort
	serverConfig.ReadTimeout = cfg.HTTPReadTimeout
	serverConfig.WriteTimeout = cfg.HTTPWriteTimeout
	serverConfig.ShutdownTimeout = cfg.HTTPShutdownTimeout
	server := api.NewServer(router, serverConfig, logger)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage),
	)

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// cleanRevokedTokens periodically drops expired token revocations
func cleanRevokedTokens(ctx context.Context, authService *auth.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			authService.CleanRevoked()
		}
	}
}
