// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/health"
)

type Config struct {
	ServerConfig  config.ServerConfig
	Metrics       config.MetricsConfig
	ServiceName   string
	HealthHandler *health.Handler
	Logger        *slog.Logger
}

type Server struct {
	httpServer *http.Server
	api        chi.Router
	health     *health.Handler
	logger     *slog.Logger
}

// New builds the server with health and metrics routes mounted on the root
// router. Those routes skip the middleware callers add through Router.
func New(cfg Config) *Server {
	router := chi.NewRouter()

	if cfg.HealthHandler == nil {
		cfg.HealthHandler = health.NewHandler()
	}
	cfg.HealthHandler.RegisterRoutes(router)

	if cfg.Metrics.Enabled {
		router.Method(http.MethodGet, cfg.Metrics.Path, promhttp.Handler())
	}

	name := cfg.ServiceName
	if name == "" {
		name = "http.server"
	}

	handler := otelhttp.NewHandler(router, name,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           handler,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: cfg.ServerConfig.ReadTimeout,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
		},
		api:    router.With(),
		health: cfg.HealthHandler,
		logger: cfg.Logger,
	}
}

// Router is where application middleware and routes go. Add middleware
// before the first route.
func (s *Server) Router() chi.Router {
	return s.api
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown flips readiness off, waits drainDelay so load balancers stop
// routing here, then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	s.health.SetShutdown(true)

	if drainDelay > 0 {
		s.logger.Info("draining before shutdown", "delay", drainDelay)
		select {
		case <-time.After(drainDelay):
		case <-ctx.Done():
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
