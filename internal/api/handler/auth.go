package handler

import (
	"net/http"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/middleware"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/request"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/response"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/model"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/auth"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/services/registration"
)

// AuthHandler handles registration and session endpoints
type AuthHandler struct {
	authService         *auth.Service
	registrationService *registration.Service
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, registrationService *registration.Service) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		registrationService: registrationService,
	}
}

// Register handles POST /api/v1/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.registrationService.Register(r.Context(), req.ToRegistration())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.AuthResponseFromToken(res.Token, res.Account))
}

// Login handles POST /api/v1/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	verr := &model.ValidationError{}
	if req.Handle == "" {
		verr.Add("handle", "The handle field is required.")
	}
	if req.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if err := verr.Err(); err != nil {
		WriteError(w, err)
		return
	}

	tok, acct, err := h.authService.Login(r.Context(), req.Handle, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromToken(tok, acct))
}

// Logout handles POST /api/v1/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Revoke(middleware.MustGetPrincipal(r.Context()))
	response.Message(w, http.StatusOK, "Logged out.")
}

// GetUser handles GET /api/v1/user
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.MustGetPrincipal(r.Context())
	response.JSON(w, http.StatusOK, response.UserFromModel(p.Account))
}
