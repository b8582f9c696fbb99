package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap/zaptest"
)

// newTestService wires the console against a backend that rejects every
// sign-in.
func newTestService(t *testing.T, tune func(*Config)) *service {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid credentials"}`))
	}))
	t.Cleanup(backend.Close)

	t.Setenv("POS_SESSION_SECRET", testSecret)
	t.Setenv("POS_BACKEND_URL", backend.URL)
	cfg, err := loadConfig([]string{}, nil)
	require.NoError(t, err)
	if tune != nil {
		tune(cfg)
	}

	svc, err := newService(context.Background(), zaptest.NewLogger(t), tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider(), cfg)
	require.NoError(t, err)
	t.Cleanup(svc.close)
	return svc
}

func serve(svc *service, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	svc.handler.ServeHTTP(w, req)
	return w
}

func TestService_HealthEndpoints(t *testing.T) {
	svc := newTestService(t, nil)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	svc.health.SetReady(true)
	w = serve(svc, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestService_RequestIDEchoed(t *testing.T) {
	svc := newTestService(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	req.Header.Set("X-Request-ID", "till-7-request")
	w := serve(svc, req)
	assert.Equal(t, "till-7-request", w.Header().Get("X-Request-ID"))
}

func TestService_ConsoleRoutes(t *testing.T) {
	svc := newTestService(t, nil)

	w := serve(svc, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/login"`)

	w = serve(svc, httptest.NewRequest(http.MethodGet, "/pos", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestService_LoginRateLimited(t *testing.T) {
	svc := newTestService(t, func(cfg *Config) {
		cfg.RateLimit.Max = 2
		cfg.RateLimit.Window = time.Hour
	})

	attempt := func() *httptest.ResponseRecorder {
		form := url.Values{"username": {"admin"}, "password": {"wrong"}}
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return serve(svc, req)
	}

	for range 2 {
		w := attempt()
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password.")
	}

	w := attempt()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Zero(t, svc.sessions.Len())

	// Health endpoints stay reachable for the throttled client.
	w = serve(svc, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewService_InvalidBackendURL(t *testing.T) {
	cfg := &Config{
		BackendURL: "not a url",
		Session:    SessionConfig{Secret: testSecret, TTL: time.Hour},
		Sales:      SalesConfig{TaxRate: "0.10"},
	}
	_, err := newService(context.Background(), zaptest.NewLogger(t), tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create backend client")
}
