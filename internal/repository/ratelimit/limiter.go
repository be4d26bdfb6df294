// Package ratelimit implements fixed-window request counting per key.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis"
)

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// time until the window resets
	Reset time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

func windowStart(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window)
}

func decide(count int64, limit int, reset time.Duration) Decision {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: count <= int64(limit), Limit: limit, Remaining: remaining, Reset: reset}
}

// RedisLimiter counts with INCR on ratelimit:<key>:<window start>.
type RedisLimiter struct {
	rc     *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(rc *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rc: rc, limit: limit, window: window, now: time.Now}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := r.now()
	start := windowStart(now, r.window)
	k := fmt.Sprintf("ratelimit:%s:%d", key, start.Unix())

	pipe := r.rc.WithContext(ctx).TxPipeline()
	incr := pipe.Incr(k)
	pipe.Expire(k, r.window)
	if _, err := pipe.Exec(); err != nil {
		return Decision{}, fmt.Errorf("rate limit counter: %w", err)
	}
	return decide(incr.Val(), r.limit, start.Add(r.window).Sub(now)), nil
}

type memWindow struct {
	start time.Time
	count int64
}

// MemoryLimiter is the single process equivalent of RedisLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*memWindow
	now     func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, windows: map[string]*memWindow{}, now: time.Now}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	start := windowStart(now, m.window)

	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[key]
	if !ok || !w.start.Equal(start) {
		w = &memWindow{start: start}
		m.windows[key] = w
		m.sweepLocked(start)
	}
	w.count++
	return decide(w.count, m.limit, start.Add(m.window).Sub(now)), nil
}

// sweepLocked forgets windows older than the current one.
func (m *MemoryLimiter) sweepLocked(current time.Time) {
	for k, w := range m.windows {
		if w.start.Before(current) {
			delete(m.windows, k)
		}
	}
}
