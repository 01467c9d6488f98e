package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/contribution-be/internal/http/respond"
	"github.com/hongminglow/contribution-be/internal/models/dto"
)

// CredentialService is the part of auth.Service used by the public routes.
type CredentialService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	ResetPassword(ctx context.Context, username, newPassword string) error
}

// AuthHandler owns the unauthenticated register, login and reset endpoints.
type AuthHandler struct {
	svc          CredentialService
	logger       *slog.Logger
	resetEnabled bool
}

// NewAuthHandler constructs the handler. When resetEnabled is false the
// reset-password route is not mounted.
func NewAuthHandler(svc CredentialService, logger *slog.Logger, resetEnabled bool) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger, resetEnabled: resetEnabled}
}

// Register attaches auth routes to the router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	if h.resetEnabled {
		r.Post("/reset-password", h.handleResetPassword)
	}
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	respond.Message(w, http.StatusCreated, "User registered successfully")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Message: "Login successful", Token: token})
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Username, req.NewPassword); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Password reset successfully")
}
