package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/http/respond"
	"github.com/hongminglow/contribution-be/internal/models/dto"
)

// AccountService is the part of auth.Service used by the bearer-protected routes.
type AccountService interface {
	AddContribution(ctx context.Context, username, contribution string) error
	ListContributions(ctx context.Context, username string) ([]string, error)
	UpdatePassword(ctx context.Context, username, currentPassword, newPassword string) error
}

// AccountHandler serves routes for the authenticated user. It expects the
// username in the request context.
type AccountHandler struct {
	svc    AccountService
	logger *slog.Logger
}

// NewAccountHandler constructs the handler.
func NewAccountHandler(svc AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

// Register attaches account routes. r must already apply authentication.
func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/contribution", h.handleAddContribution)
	r.Get("/contribution", h.handleListContributions)
	r.Put("/update-password", h.handleUpdatePassword)
	r.Get("/profile", h.handleProfile)
	r.Get("/administration", h.handleAdministration)
}

func (h *AccountHandler) handleAddContribution(w http.ResponseWriter, r *http.Request) {
	var req dto.ContributionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := auth.UsernameFromContext(r.Context())
	if err := h.svc.AddContribution(r.Context(), username, req.Contribution); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Contribution added successfully")
}

func (h *AccountHandler) handleListContributions(w http.ResponseWriter, r *http.Request) {
	contributions, err := h.svc.ListContributions(r.Context(), auth.UsernameFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if contributions == nil {
		contributions = []string{}
	}
	respond.JSON(w, http.StatusOK, dto.ContributionsResponse{Contributions: contributions})
}

func (h *AccountHandler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	username := auth.UsernameFromContext(r.Context())
	if err := h.svc.UpdatePassword(r.Context(), username, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	respond.Message(w, http.StatusOK, "Password updated successfully")
}

func (h *AccountHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusOK, fmt.Sprintf("Profile details for %s", auth.UsernameFromContext(r.Context())))
}

func (h *AccountHandler) handleAdministration(w http.ResponseWriter, r *http.Request) {
	respond.Message(w, http.StatusOK, fmt.Sprintf("Welcome to Administration, %s", auth.UsernameFromContext(r.Context())))
}
