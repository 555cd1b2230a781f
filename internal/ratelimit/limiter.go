// Package ratelimit implements a fixed-window request limiter backed by a
// pruned per-identifier timestamp log. State is in-memory only and resets on
// restart; this is a throttle, not a security boundary.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks request timestamps per identifier within a trailing window.
// Safe for concurrent use.
type Limiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter allowing maxRequests per identifier per window.
func New(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow reports whether a request for identifier may proceed, recording it if
// so. Rejected requests are not recorded and do not extend the window.
func (l *Limiter) Allow(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(identifier)
	if len(valid) >= l.maxRequests {
		l.requests[identifier] = valid
		return false
	}

	l.requests[identifier] = append(valid, l.now())
	return true
}

// Remaining returns how many requests identifier may still make in the
// current window. It prunes but never records.
func (l *Limiter) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(identifier)
	l.requests[identifier] = valid

	remaining := l.maxRequests - len(valid)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// ResetAt returns when the identifier's oldest retained request leaves the
// window, i.e. when capacity next frees up. Zero time when unconstrained.
func (l *Limiter) ResetAt(identifier string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.prune(identifier)
	l.requests[identifier] = valid

	if len(valid) < l.maxRequests {
		return time.Time{}
	}
	return valid[0].Add(l.window)
}

// Reset forgets all requests for identifier.
func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.requests, identifier)
}

// Limit returns the configured per-window maximum.
func (l *Limiter) Limit() int {
	return l.maxRequests
}

// prune drops timestamps older than the window. Caller holds l.mu.
func (l *Limiter) prune(identifier string) []time.Time {
	cutoff := l.now().Add(-l.window)
	timestamps := l.requests[identifier]

	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	return valid
}

// CleanupLoop periodically removes identifiers with no requests in the
// window, so the map does not grow without bound. Blocks until done is
// closed; run it on its own goroutine.
func (l *Limiter) CleanupLoop(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			l.mu.Lock()
			for id := range l.requests {
				if len(l.prune(id)) == 0 {
					delete(l.requests, id)
				} else {
					l.requests[id] = l.prune(id)
				}
			}
			l.mu.Unlock()
		}
	}
}
