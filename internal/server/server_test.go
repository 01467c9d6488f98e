package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/contribution-be/internal/auth"
	"github.com/hongminglow/contribution-be/internal/cache"
	"github.com/hongminglow/contribution-be/internal/config"
	"github.com/hongminglow/contribution-be/internal/http/handlers"
	"github.com/hongminglow/contribution-be/internal/metrics"
	"github.com/hongminglow/contribution-be/internal/storage/memory"
)

type denyAll struct{}

func (denyAll) CheckIPRateLimit(context.Context, string, int, int) (cache.RateLimitResult, error) {
	return cache.RateLimitResult{Allowed: false, RetryAfter: time.Second}, nil
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	tokens := auth.NewTokenManager("server-secret", "server-test", time.Hour)
	prom := metrics.NewPrometheus()
	svc, err := auth.NewService(store, auth.NewBcryptHasher(bcrypt.MinCost), tokens,
		auth.WithLogger(logger), auth.WithRecorder(prom))
	require.NoError(t, err)

	return Deps{
		Config: config.Config{
			Port:                 "0",
			CORSOrigins:          []string{"*"},
			RateLimitRPS:         1,
			RateLimitBurst:       1,
			PasswordResetEnabled: true,
		},
		Service:        svc,
		Logger:         logger,
		Metrics:        prom,
		MetricsHandler: prom.Handler(),
		Checks:         map[string]handlers.HealthChecker{"store": store},
	}
}

func send(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_FullFlow(t *testing.T) {
	h := NewRouter(testDeps(t))

	rec := send(t, h, http.MethodPost, "/register", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = send(t, h, http.MethodPost, "/login", "", `{"username":"alice","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = send(t, h, http.MethodPost, "/contribution", login.Token, `{"contribution":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = send(t, h, http.MethodGet, "/contribution", login.Token, "")
	assert.JSONEq(t, `{"contributions":["x"]}`, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/contribution", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `contrib_auth_events_total{operation="register",outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/contribution"`)
}

func TestRouter_HealthAndFallbacks(t *testing.T) {
	h := NewRouter(testDeps(t))

	assert.Equal(t, http.StatusOK, send(t, h, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, send(t, h, http.MethodGet, "/readyz", "", "").Code)

	rec := send(t, h, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, rec.Body.String())

	rec = send(t, h, http.MethodGet, "/login", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_ResetPasswordDisabled(t *testing.T) {
	deps := testDeps(t)
	deps.Config.PasswordResetEnabled = false
	h := NewRouter(deps)

	rec := send(t, h, http.MethodPost, "/reset-password", "", `{"username":"alice","newPassword":"secret2"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RateLimitsCredentialRoutesOnly(t *testing.T) {
	deps := testDeps(t)
	deps.Limiter = denyAll{}
	h := NewRouter(deps)

	for _, path := range []string{"/login", "/register", "/reset-password"} {
		rec := send(t, h, http.MethodPost, path, "", `{}`)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code, path)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"), path)
	}
	assert.Equal(t, http.StatusOK, send(t, h, http.MethodGet, "/healthz", "", "").Code)
}

func TestNew(t *testing.T) {
	srv := New(config.Config{Port: "9999", ReadTimeout: time.Second, WriteTimeout: time.Second}, http.NotFoundHandler())
	assert.Equal(t, ":9999", srv.Addr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
