// AngelaMos | 2026
// metrics.go

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carterperez-dev/joborders/internal/core"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joborders_http_requests_total",
			Help: "Total HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "joborders_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	authzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joborders_authz_decisions_total",
			Help: "Job order authorization decisions by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	rateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "joborders_rate_limited_total",
			Help: "Requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)
)

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		path := routePattern(r)
		httpRequestsTotal.
			WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).
			Inc()
		httpRequestDuration.
			WithLabelValues(r.Method, path).
			Observe(time.Since(start).Seconds())
	})
}

// RecordAuthzDecision counts one guard outcome for action.
func RecordAuthzDecision(action string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	authzDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

// routePattern prefers the matched chi pattern so ids never become labels.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint collapses id segments for requests no route matched.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if core.IsUUID(part) || isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
