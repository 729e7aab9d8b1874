package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/response"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the health endpoint
type HealthHandler struct {
	storage Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage Pinger) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.Health{Status: "degraded", Storage: "unreachable"})
		return
	}
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: "ok"})
}
