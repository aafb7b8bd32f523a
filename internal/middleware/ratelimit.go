// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/joborders/internal/core"
)

type RateLimitConfig struct {
	// Name namespaces the buckets so two limiters never share one.
	Name       string
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	// FailOpen serves from an in-process bucket while redis is down.
	// Otherwise requests get 503 until redis recovers.
	FailOpen   bool
	BypassFunc func(*http.Request) bool
}

// RateLimiter enforces a GCRA limit in redis. With FailOpen it falls back
// to an in-process token bucket while redis is unreachable.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
	prefix   string
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "global"
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(time.Now),
		config:   cfg,
		prefix:   "ratelimit:" + cfg.Name + ":",
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.prefix + rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err, "key", key)
			core.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE",
				"rate limiter unavailable")
			return
		}

		setRateLimitHeaders(w, res)

		if res.Allowed == 0 {
			rateLimited.WithLabelValues(rl.config.Name).Inc()
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Close stops the in-memory fallback's cleanup loop.
func (rl *RateLimiter) Close() {
	rl.fallback.close()
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err == nil {
		return res, nil
	}
	if !rl.config.FailOpen {
		return nil, fmt.Errorf("redis rate limit: %w", err)
	}

	slog.Debug("redis rate limit unavailable, using local bucket", "error", err)
	return rl.fallback.allow(key, rl.config.Limit), nil
}

// ClientIP is the caller address, preferring the proxy-appended entry of
// X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.LastIndexByte(xff, ','); i >= 0 {
			xff = xff[i+1:]
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// KeyByUser buckets authenticated callers by user id and anonymous ones by
// address.
func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return KeyByIP(r)
}

// SkipSafeMethods bypasses the limiter for read-only requests so only
// mutations such as job order creation draw from the bucket.
func SkipSafeMethods(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result) {
	h := w.Header()
	limit := res.Limit

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset",
		strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy",
		fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit",
		fmt.Sprintf("%d;t=%d", res.Remaining, int(res.ResetAfter.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.Error(w, http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter))
}
