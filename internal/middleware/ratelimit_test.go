// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func post(h http.Handler, userID string) int {
	req := httptest.NewRequest(http.MethodPost, "/v1/joborders", nil)
	if userID != "" {
		req = withUser(req, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	client, _ := newTestRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{
		Name:     "writes",
		Limit:    PerMinute(2, 2),
		KeyFunc:  KeyByUser,
		FailOpen: true,
	})
	t.Cleanup(rl.Close)

	h := rl.Handler(okHandler())

	statuses := []int{post(h, "u1"), post(h, "u1"), post(h, "u1")}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	assert.Equal(t, http.StatusOK, post(h, "u2"), "buckets are per user")
}

func TestRateLimitersDoNotShareBuckets(t *testing.T) {
	client, _ := newTestRedis(t)

	global := NewRateLimiter(client, RateLimitConfig{Limit: PerMinute(1, 1)})
	writes := NewRateLimiter(client, RateLimitConfig{
		Name:    "writes",
		Limit:   PerMinute(1, 1),
		KeyFunc: KeyByUser,
	})
	t.Cleanup(global.Close)
	t.Cleanup(writes.Close)

	require.Equal(t, http.StatusOK, post(global.Handler(okHandler()), ""))
	assert.Equal(t, http.StatusOK, post(writes.Handler(okHandler()), ""))
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	client, mr := newTestRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{
		Limit:    PerMinute(1, 1),
		KeyFunc:  KeyByUser,
		FailOpen: true,
	})
	t.Cleanup(rl.Close)
	mr.Close()

	h := rl.Handler(okHandler())
	assert.Equal(t, http.StatusOK, post(h, "u1"))
	assert.Equal(t, http.StatusTooManyRequests, post(h, "u1"))
}

func TestRateLimiterFailsClosedWhenRedisIsDown(t *testing.T) {
	client, mr := newTestRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{
		Limit:   PerMinute(10, 10),
		KeyFunc: KeyByUser,
	})
	t.Cleanup(rl.Close)
	mr.Close()

	h := rl.Handler(okHandler())
	assert.Equal(t, http.StatusServiceUnavailable, post(h, "u1"))
}

func TestRateLimiterSkipsSafeMethods(t *testing.T) {
	client, _ := newTestRedis(t)
	rl := NewRateLimiter(client, RateLimitConfig{
		Limit:      PerMinute(1, 1),
		BypassFunc: SkipSafeMethods,
	})
	t.Cleanup(rl.Close)

	h := rl.Handler(okHandler())
	for range 3 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/joborders", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	l := newLocalLimiter(func() time.Time { return now })
	t.Cleanup(l.close)

	l.allow("a", PerMinute(10, 10))
	now = now.Add(entryTTL + time.Second)
	l.allow("b", PerMinute(10, 10))
	l.sweep()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.buckets, "a")
	assert.Contains(t, l.buckets, "b")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "2.2.2.2", ClientIP(req))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t,
		"/v1/joborders/{id}/edit",
		normalizeEndpoint("/v1/joborders/0b5c1a8e-6a4f-4a57-9d7e-3f7a9d2b8c11/edit"),
	)
	assert.Equal(t, "/v1/notifications/{id}", normalizeEndpoint("/v1/notifications/42"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
}
