package memory

import (
	"context"
	"sync"
	"time"

	"github.com/viralforge/autopilot/internal/domain"
)

// RateLimiter is a fixed-window per-key budget, mirroring the Redis adapter's
// semantics for tests and redis-less runtimes.
type RateLimiter struct {
	mu      sync.Mutex
	budget  int64
	window  time.Duration
	usage   map[string]int64
	resetAt map[string]time.Time
	nowFn   func() time.Time
}

func NewRateLimiter(budget int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		budget:  budget,
		window:  window,
		usage:   map[string]int64{},
		resetAt: map[string]time.Time{},
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock. Test hook.
func (l *RateLimiter) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		l.nowFn = fn
	}
}

func (l *RateLimiter) Acquire(_ context.Context, key string, cost int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if reset, ok := l.resetAt[key]; !ok || now.After(reset) {
		l.usage[key] = 0
		l.resetAt[key] = now.Add(l.window)
	}
	if l.usage[key]+cost > l.budget {
		return domain.ErrRateLimited
	}
	l.usage[key] += cost
	return nil
}
