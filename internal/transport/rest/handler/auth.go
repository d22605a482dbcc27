package handler

import (
	"net/http"

	"livepoll/internal/model"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /v1/auth/register
//
// @Summary      Register a presenter
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.RegisterRequest  true  "Account"
// @Success      201   {object}  model.LoginResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      409   {object}  ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login
//
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.LoginRequest  true  "Credentials"
// @Success      200   {object}  model.LoginResponse
// @Failure      401   {object}  ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Profile handles GET /v1/auth/profile
//
// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  model.User
// @Security     BearerAuth
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	user, err := h.authSvc.Profile(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles POST /v1/auth/change-password
//
// @Summary      Change password
// @Description  Replaces the password and revokes every token issued before.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      model.ChangePasswordRequest  true  "Passwords"
// @Success      200   {object}  model.LoginResponse
// @Security     BearerAuth
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	var req model.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.authSvc.ChangePassword(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
