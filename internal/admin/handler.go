// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

// CountFunc returns the number of rows of one resource.
type CountFunc func(ctx context.Context) (int, error)

type Counters struct {
	Users       CountFunc
	Roles       CountFunc
	Permissions CountFunc
	JobOrders   CountFunc
}

type HandlerConfig struct {
	Counters   Counters
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

type Handler struct {
	cfg HandlerConfig
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// RegisterRoutes mounts the dashboard and the admin-only system stats. The
// router must already carry the authenticator and principal loader.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(authz.PermViewDashboard)).
		Get("/dashboard", h.Dashboard)

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/db", h.GetDatabaseStats)
		r.Get("/stats/redis", h.GetRedisStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := h.cfg.Counters

	var resp DashboardResponse
	for _, item := range []struct {
		name string
		fn   CountFunc
		dst  *int
	}{
		{"users", c.Users, &resp.UsersCount},
		{"roles", c.Roles, &resp.RolesCount},
		{"permissions", c.Permissions, &resp.PermissionsCount},
		{"job orders", c.JobOrders, &resp.JobOrdersCount},
	} {
		if item.fn == nil {
			continue
		}
		n, err := item.fn(ctx)
		if err != nil {
			core.InternalServerError(w, fmt.Errorf("count %s: %w", item.name, err))
			return
		}
		*item.dst = n
	}

	core.OK(w, resp)
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.cfg.DBPing),
			Stats:   h.dbStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.cfg.RedisPing),
			Stats:   h.redisStats(),
		},
		Runtime: runtimeStats(),
	})
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.dbStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.redisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, runtimeStats())
}

func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	return ping == nil || ping(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     mem.Alloc,
		MemSys:       mem.Sys,
		NumGC:        mem.NumGC,
	}
}

func (h *Handler) dbStats() *DBPoolStats {
	if h.cfg.DBStats == nil {
		return nil
	}

	stats := h.cfg.DBStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) redisStats() *RedisPoolStats {
	if h.cfg.RedisStats == nil {
		return nil
	}

	stats := h.cfg.RedisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}
