package handler

import (
	"net/http"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/request"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/response"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/accounts"
)

// AccountHandler handles administrative account endpoints
type AccountHandler struct {
	accounts *accounts.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *accounts.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// UpdateProgress handles PATCH /api/v1/admin/accounts/{id}/progress.
// Omitted fields keep their current value.
func (h *AccountHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.UpdateProgressRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Level == nil && req.ExperiencePoints == nil {
		WriteError(w, model.NewValidationError("level", "The level or experience points field is required."))
		return
	}

	current, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	level, xp := current.Level, current.ExperiencePoints
	if req.Level != nil {
		level = *req.Level
	}
	if req.ExperiencePoints != nil {
		xp = *req.ExperiencePoints
	}

	updated, err := h.accounts.SetProgress(r.Context(), id, level, xp)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(updated))
}
