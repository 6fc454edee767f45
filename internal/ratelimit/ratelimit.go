package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minIdleTTL bounds how long an unused key keeps its bucket.
const minIdleTTL = time.Minute

// Limiter defines the interface for rate limiting
type Limiter interface {
	Allow(key string) bool
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// InMemoryLimiter keeps one token bucket per key in memory. Keys idle for
// longer than the TTL are evicted; by then their bucket has refilled, so a
// fresh one behaves the same.
type InMemoryLimiter struct {
	keys      map[string]*entry
	mu        sync.Mutex
	r         rate.Limit
	b         int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewInMemoryLimiter creates a new rate limiter
// Example: NewInMemoryLimiter(1, 16*time.Millisecond, 1) -> at most one scroll check per frame
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if burst <= 0 {
		burst = 1
	}

	idleTTL := per * time.Duration(burst)
	if idleTTL < minIdleTTL {
		idleTTL = minIdleTTL
	}

	return &InMemoryLimiter{
		keys:    make(map[string]*entry),
		r:       rate.Every(per / time.Duration(requests)),
		b:       burst,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow checks if an event for key may proceed now
func (l *InMemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	e, exists := l.keys[key]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(l.r, l.b)}
		l.keys[key] = e
	}
	e.lastSeen = now

	return e.limiter.AllowN(now, 1)
}

// Len reports how many keys currently hold a bucket.
func (l *InMemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// sweepLocked drops idle keys at most once per TTL. Callers hold l.mu.
func (l *InMemoryLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now

	for key, e := range l.keys {
		if now.Sub(e.lastSeen) >= l.idleTTL {
			delete(l.keys, key)
		}
	}
}
