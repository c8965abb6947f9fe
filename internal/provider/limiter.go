// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiters hands out one token bucket per provider name. The same bucket
// is returned to every caller, so pacing holds across all workers of a run
// rather than per worker.
type Limiters struct {
	mu       sync.Mutex
	interval time.Duration
	byName   map[string]*rate.Limiter
}

// NewLimiters creates a registry whose buckets admit one request per
// interval with a burst of one. A non-positive interval disables pacing.
func NewLimiters(interval time.Duration) *Limiters {
	return &Limiters{
		interval: interval,
		byName:   make(map[string]*rate.Limiter),
	}
}

// For returns the shared limiter for the named provider, creating it on
// first use.
func (l *Limiters) For(name string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.byName[name]; ok {
		return lim
	}
	limit := rate.Inf
	if l.interval > 0 {
		limit = rate.Every(l.interval)
	}
	lim := rate.NewLimiter(limit, 1)
	l.byName[name] = lim
	return lim
}

// Wait blocks until the named provider's bucket admits a request or ctx
// is done.
func (l *Limiters) Wait(ctx context.Context, name string) error {
	return l.For(name).Wait(ctx)
}
