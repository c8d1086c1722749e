package aggregation

import (
	"sync"

	"golang.org/x/time/rate"
)

// Default recompute throttle. Auto-save triggers arrive in bursts while an
// evaluator fills the wizard; one aggregation per second with a small burst
// absorbs that without letting a misbehaving client saturate a worker.
const (
	DefaultRecomputesPerSecond = 1
	DefaultRecomputeBurst      = 5
)

// RecomputeLimiter throttles aggregation recomputes per tenant using a
// token bucket per tenant id. Throttled triggers surface as retryable
// errors, so Temporal backs off and redelivers rather than dropping them.
type RecomputeLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewRecomputeLimiter creates a per-tenant limiter. Non-positive arguments
// select the defaults.
func NewRecomputeLimiter(perSecond float64, burst int) *RecomputeLimiter {
	if perSecond <= 0 {
		perSecond = DefaultRecomputesPerSecond
	}
	if burst <= 0 {
		burst = DefaultRecomputeBurst
	}
	return &RecomputeLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether a recompute for the tenant may proceed now.
func (l *RecomputeLimiter) Allow(tenantID string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[tenantID]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[tenantID] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}
