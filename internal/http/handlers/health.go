package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/contribution-be/internal/http/respond"
)

const readinessTimeout = 2 * time.Second

// HealthChecker is a dependency that can report readiness.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	startedAt time.Time
	checks    map[string]HealthChecker
}

// NewHealthHandler creates a health handler. checks are probed by /readyz.
func NewHealthHandler(startedAt time.Time, checks map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, checks: checks}
}

// Register wires the probes into the router.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/healthz", h.handleLive)
	r.Get("/readyz", h.handleReady)
}

func (h *HealthHandler) handleLive(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}

func (h *HealthHandler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			results[name] = "unavailable"
			status, code = "unavailable", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	respond.JSON(w, code, map[string]any{"status": status, "checks": results})
}
