package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/oops"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/http/respond"
	"github.com/hongminglow/contribution-be/internal/logging"
	"github.com/hongminglow/contribution-be/internal/middleware"
)

const maxBodyBytes = 1 << 20

// statusFor maps service error kinds to HTTP statuses. Conflict is 400 to match
// the existing clients.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.LogError(r.Context(), logger, "request failed", err,
			"request_id", middleware.GetRequestID(r.Context()),
			"path", r.URL.Path,
		)
		respond.Error(w, status, "Internal server error")
		return
	}
	respond.Error(w, status, oops.GetPublic(err, http.StatusText(status)))
}

// decodeJSON reads a JSON body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON payload")
		return false
	}
	return true
}
