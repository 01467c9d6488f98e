// Package server assembles the router and the HTTP server.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/config"
	"github.com/hongminglow/contribution-be/internal/http/handlers"
	"github.com/hongminglow/contribution-be/internal/http/respond"
	"github.com/hongminglow/contribution-be/internal/metrics"
	"github.com/hongminglow/contribution-be/internal/middleware"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Config  config.Config
	Service *auth.Service
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	// Limiter throttles the credential routes when set.
	Limiter middleware.RateLimiter
	// Checks are probed by /readyz.
	Checks map[string]handlers.HealthChecker
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.CORS(d.Config.CORSOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	handlers.NewHealthHandler(time.Now(), d.Checks).Register(r)
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
			Logger:         d.Logger,
			Limiter:        d.Limiter,
			RPS:            d.Config.RateLimitRPS,
			Burst:          d.Config.RateLimitBurst,
			TrustedProxies: d.Config.TrustedProxyPrefixes(),
		}))
		handlers.NewAuthHandler(d.Service, d.Logger, d.Config.PasswordResetEnabled).Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Service, d.Logger))
		handlers.NewAccountHandler(d.Service, d.Logger).Register(r)
	})

	return r
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New returns a server bound to cfg's address.
func New(cfg config.Config, handler http.Handler) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return &Server{inner: httpServer}
}

// Addr reports the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
