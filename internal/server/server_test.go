// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/health"
)

func newTestServer(metrics bool) (*Server, *health.Handler) {
	h := health.NewHandler()
	srv := New(Config{
		ServerConfig: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0,
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Metrics:       config.MetricsConfig{Enabled: metrics, Path: "/metrics"},
		HealthHandler: h,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return srv, h
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestNewMountsOperationalRoutes(t *testing.T) {
	srv, _ := newTestServer(true)

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/healthz").Code)

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetricsCanBeDisabled(t *testing.T) {
	srv, _ := newTestServer(false)
	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/metrics").Code)
}

func TestRouterAddsRoutes(t *testing.T) {
	srv, _ := newTestServer(false)
	srv.Router().Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	assert.Equal(t, http.StatusTeapot, get(t, srv.Handler(), "/ping").Code)
}

func TestShutdownMarksHealthDraining(t *testing.T) {
	srv, _ := newTestServer(false)

	require.NoError(t, srv.Shutdown(context.Background(), 0))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/livez").Code)
}
