package render

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter caps how often the stage is repainted.
type Limiter struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewLimiter allows fps repaints per second. fps <= 0 means unlimited.
func NewLimiter(fps float64) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(limit(fps), 1)}
}

// Allow reports whether a repaint may happen now.
func (l *Limiter) Allow() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.limiter.Allow()
}

func (l *Limiter) SetRate(fps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(limit(fps))
}

func (l *Limiter) Rate() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return float64(l.limiter.Limit())
}

func limit(fps float64) rate.Limit {
	if fps <= 0 {
		return rate.Inf
	}
	return rate.Limit(fps)
}
