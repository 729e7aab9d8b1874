package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/handler"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/middleware"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/accounts"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/leaderboard"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registration"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registry"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger              *slog.Logger
	Storage             handler.Pinger
	AuthService         *auth.Service
	RegistrationService *registration.Service
	RegistryService     *registry.Service
	LeaderboardService  *leaderboard.Service
	AccountsService     *accounts.Service
	// PageSize is the default leaderboard page size
	PageSize int
	// AllowedOrigins lists CORS origins; empty disables CORS headers
	AllowedOrigins []string
	// RateLimitPerMinute caps requests per client IP; 0 disables
	RateLimitPerMinute int
	// Clock drives the rate limiter. Defaults to the wall clock.
	Clock clock.Clock
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.RegistrationService)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.LeaderboardService, cfg.PageSize)
	studentHandler := handler.NewStudentHandler(cfg.RegistryService)
	accountHandler := handler.NewAccountHandler(cfg.AccountsService)
	healthHandler := handler.NewHealthHandler(cfg.Storage)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)
	if cfg.RateLimitPerMinute > 0 {
		clk := cfg.Clock
		if clk == nil {
			clk = clock.New()
		}
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitPerMinute, clk)))
	}

	// Public routes
	api.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Authenticated routes
	protected := api.NewRoute().Subrouter()
	protected.Use(authMiddleware)
	protected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	protected.HandleFunc("/user", authHandler.GetUser).Methods(http.MethodGet)
	protected.HandleFunc("/leaderboard", leaderboardHandler.Get).Methods(http.MethodGet)

	// Administrative routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.Use(middleware.RequirePrivileged)
	admin.HandleFunc("/students", studentHandler.Find).Methods(http.MethodGet)
	admin.HandleFunc("/students", studentHandler.Import).Methods(http.MethodPost)
	admin.HandleFunc("/students/{id:[0-9]+}", studentHandler.Get).Methods(http.MethodGet)
	admin.HandleFunc("/students/{id:[0-9]+}", studentHandler.Delete).Methods(http.MethodDelete)
	admin.HandleFunc("/accounts/{id:[0-9]+}/progress", accountHandler.UpdateProgress).Methods(http.MethodPatch)

	// Preflight requests never match a route, so CORS wraps the whole router
	if len(cfg.AllowedOrigins) > 0 {
		return middleware.CORS("/api/", cfg.AllowedOrigins)(r)
	}
	return r
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	apierr.WriteError(w, apierr.NewNotFoundError("Not found"))
}
