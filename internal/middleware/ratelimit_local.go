// AngelaMos | 2026
// ratelimit_local.go

package middleware

import (
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is a per-process token bucket per key. It only serves while
// redis is unavailable, so its counts are approximate across replicas.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

func newLocalLimiter(now func() time.Time) *localLimiter {
	l := &localLimiter{
		buckets: make(map[string]*bucket),
		now:     now,
		stop:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

func (l *localLimiter) close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *localLimiter) sweepLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *localLimiter) sweep() {
	cutoff := l.now().Add(-entryTTL)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	now := l.now()
	perSec := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSec)

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSec), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)
	remaining := max(int(b.limiter.TokensAt(now)), 0)
	l.mu.Unlock()

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if allowed {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	return res
}
