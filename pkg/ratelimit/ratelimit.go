package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// overflowKey shares one bucket among keys seen after the limiter is full
const overflowKey = "\x00overflow"

// Limiter keeps one token bucket per key, e.g. per relayed command name
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	maxKeys  int
}

// NewLimiter creates a new rate limiter
// rps: events per second per key
// burst: maximum burst size per key
// maxKeys: distinct keys tracked before new keys share one bucket; 0 means no limit
func NewLimiter(rps float64, burst, maxKeys int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		maxKeys:  maxKeys,
	}
}

// GetLimiter returns the bucket for key
func (l *Limiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if exists {
		return limiter
	}
	if l.maxKeys > 0 && len(l.limiters) >= l.maxKeys {
		key = overflowKey
		if limiter, exists = l.limiters[key]; exists {
			return limiter
		}
	}
	limiter = rate.NewLimiter(l.rps, l.burst)
	l.limiters[key] = limiter
	return limiter
}

// Allow reports whether an event for key may happen now
func (l *Limiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Keys returns the number of tracked buckets
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
