// Package ratelimit implements the relay's per-caller admission control: a
// fixed-window request counter keyed by caller identity.
package ratelimit

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long the caller should wait before retrying.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	wait := d.ResetAt.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

type bucket struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
}

// Limiter counts requests per caller over a fixed window. Buckets live in a
// concurrent map; each bucket serializes its own counter so fairness is
// approximate across windows but never racy within one.
type Limiter struct {
	max     int
	window  time.Duration
	buckets *xsync.Map[string, *bucket]

	now func() time.Time
}

// New builds a limiter allowing max requests per window for each caller key.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		buckets: xsync.NewMap[string, *bucket](),
		now:     time.Now,
	}
}

// Allow records one request for the caller and reports whether it fits the
// current window.
func (l *Limiter) Allow(key string) Decision {
	b, _ := l.buckets.LoadOrStore(key, &bucket{})

	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.now()
	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= l.window {
		b.windowStart = now
		b.count = 0
	}
	resetAt := b.windowStart.Add(l.window)

	if b.count >= l.max {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}

	b.count++
	return Decision{Allowed: true, Remaining: l.max - b.count, ResetAt: resetAt}
}
