// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/carterperez-dev/joborders/internal/admin"
	"github.com/carterperez-dev/joborders/internal/auth"
	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/health"
	"github.com/carterperez-dev/joborders/internal/joborder"
	"github.com/carterperez-dev/joborders/internal/middleware"
	"github.com/carterperez-dev/joborders/internal/notification"
	"github.com/carterperez-dev/joborders/internal/rbac"
	"github.com/carterperez-dev/joborders/internal/server"
	"github.com/carterperez-dev/joborders/internal/user"
)

const (
	drainDelay  = 5 * time.Second
	purgeBudget = time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	loc, err := cfg.JobOrder.Location()
	if err != nil {
		return err
	}

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		telemetry = &core.Telemetry{}
	} else if telemetry.Enabled() {
		logger.Info("OpenTelemetry tracer initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	if err := core.Migrate(cfg.Database.URL, logger); err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	core.RegisterPoolMetrics(prometheus.DefaultRegisterer, db, redis)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"access_ttl", jwtManager.AccessTokenTTL(),
	)

	rbacRepo := rbac.NewRepository(db.DB)
	registry := rbac.NewRegistry(rbacRepo, redis.Client, cfg.RBAC.CacheTTL, logger)
	rbacSvc := rbac.NewService(rbacRepo, registry)
	rbacHandler := rbac.NewHandler(rbacSvc)

	userSvc := user.NewService(user.NewRepository(db.DB), registry)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		jwtManager,
		userSvc,
		redis.Client,
	)
	authHandler := auth.NewHandler(authSvc)

	notificationSvc := notification.NewService(notification.NewRepository(db.DB))
	notificationHandler := notification.NewHandler(notificationSvc)

	jobOrderOpts := []joborder.Option{
		joborder.WithLocation(loc),
		joborder.WithPageSize(cfg.JobOrder.PageSize),
	}
	if cfg.JobOrder.NotifyAssignees {
		jobOrderOpts = append(jobOrderOpts, joborder.WithNotifier(notificationSvc))
	}
	jobOrderSvc := joborder.NewService(
		joborder.NewRepository(db.DB),
		userSvc,
		logger,
		jobOrderOpts...,
	)
	jobOrderHandler := joborder.NewHandler(
		jobOrderSvc,
		joborder.NewGuard(jobOrderSvc, logger),
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		Counters: admin.Counters{
			Users:       userSvc.CountUsers,
			Roles:       rbacSvc.CountRoles,
			Permissions: rbacSvc.CountPermissions,
			JobOrders:   jobOrderSvc.Count,
		},
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		Metrics:       cfg.Metrics,
		ServiceName:   cfg.Otel.ServiceName,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	globalLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
		),
		Name:     "global",
		FailOpen: true,
	})
	defer globalLimiter.Close()

	writeLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.JobOrder.WriteRateLimit,
			cfg.JobOrder.WriteRateBurst,
		),
		Name:       "job_order_writes",
		KeyFunc:    middleware.KeyByUser,
		BypassFunc: middleware.SkipSafeMethods,
		FailOpen:   true,
	})
	defer writeLimiter.Close()

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	router.Use(globalLimiter.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	loadPrincipal := middleware.LoadPrincipal(registry)

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator, loadPrincipal)

			userHandler.RegisterRoutes(r)
			rbacHandler.RegisterRoutes(r)
			notificationHandler.RegisterRoutes(r)
			adminHandler.RegisterRoutes(r)
		})

		// Job order guards answer anonymous callers with a 403 naming
		// "Unauthorized", so identity is optional here.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuthenticator(authSvc), loadPrincipal)

			jobOrderHandler.RegisterRoutes(r, writeLimiter.Handler)
		})
	})

	scheduler, err := startScheduler(cfg.Cron, authSvc, logger)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

// startScheduler runs housekeeping jobs. It returns nil when cron is
// disabled.
func startScheduler(
	cfg config.CronConfig,
	authSvc *auth.Service,
	logger *slog.Logger,
) (*cron.Cron, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger)))

	_, err := c.AddFunc(cfg.TokenPurgeSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeBudget)
		defer cancel()

		n, err := authSvc.PurgeExpiredTokens(ctx)
		if err != nil {
			logger.Error("token purge failed", "error", err)
			return
		}
		logger.Info("expired refresh tokens purged", "count", n)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("scheduler started",
		"token_purge_schedule", cfg.TokenPurgeSchedule,
	)

	return c, nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
