package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_IncAuthEvent(t *testing.T) {
	p := NewPrometheus()

	p.IncAuthEvent("login", "ok")
	p.IncAuthEvent("login", "ok")
	p.IncAuthEvent("login", "unauthorized")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.authEvents.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.authEvents.WithLabelValues("login", "unauthorized")))
}

func TestPrometheus_ObserveHTTPRequest(t *testing.T) {
	p := NewPrometheus()

	p.ObserveHTTPRequest(http.MethodPost, "/login", http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.httpRequests.WithLabelValues("POST", "/login", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(p.httpDuration))
}

func TestPrometheus_Handler(t *testing.T) {
	p := NewPrometheus()
	p.IncAuthEvent("register", "conflict")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `contrib_auth_events_total{operation="register",outcome="conflict"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNoop(t *testing.T) {
	r := NewNoop()
	assert.NotPanics(t, func() {
		r.IncAuthEvent("login", "ok")
		r.ObserveHTTPRequest("GET", "/", 200, time.Second)
	})
}
