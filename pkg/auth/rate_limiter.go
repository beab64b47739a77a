package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RateLimiter bounds how often a key may act.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// SlidingWindowLimiter is an in-memory sliding window limiter. Suitable for a
// single process; use the DynamoDB-backed limiter when running more than one
// replica.
type SlidingWindowLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	windowSize time.Duration
	lastSweep  time.Time
}

type window struct {
	requests []time.Time
	mu       sync.Mutex
}

// NewSlidingWindowLimiter creates a limiter allowing limit requests per
// windowSize.
func NewSlidingWindowLimiter(limit int, windowSize time.Duration) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		windowSize: windowSize,
		lastSweep:  time.Now(),
	}
}

// Allow records a request for key and reports whether it fits the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	w, exists := l.windows[key]
	if !exists {
		w = &window{}
		l.windows[key] = w
	}
	l.maybeSweep()
	l.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-l.windowSize)

	valid := w.requests[:0]
	for _, at := range w.requests {
		if at.After(windowStart) {
			valid = append(valid, at)
		}
	}
	w.requests = valid

	if len(w.requests) >= l.limit {
		return false, nil
	}
	w.requests = append(w.requests, now)
	return true, nil
}

// Reset clears the window for key.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// maybeSweep drops idle keys so the map does not grow without bound. Caller
// holds l.mu.
func (l *SlidingWindowLimiter) maybeSweep() {
	now := time.Now()
	if now.Sub(l.lastSweep) < 5*time.Minute {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-l.windowSize)
	for key, w := range l.windows {
		w.mu.Lock()
		idle := len(w.requests) == 0 || !w.requests[len(w.requests)-1].After(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.windows, key)
		}
	}
}

// IPRateLimiter caps question traffic per client address.
type IPRateLimiter struct {
	limiter RateLimiter
}

// NewIPRateLimiter creates an address limiter allowing requestsPerMinute.
func NewIPRateLimiter(requestsPerMinute int) *IPRateLimiter {
	return &IPRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow reports whether a request from ip fits the quota.
func (l *IPRateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("ip:%s", ip))
}

// UserRateLimiter caps question traffic per authenticated user.
type UserRateLimiter struct {
	limiter RateLimiter
}

// NewUserRateLimiter creates a per-user limiter allowing requestsPerMinute.
func NewUserRateLimiter(requestsPerMinute int) *UserRateLimiter {
	return &UserRateLimiter{
		limiter: NewSlidingWindowLimiter(requestsPerMinute, time.Minute),
	}
}

// Allow reports whether a request from userID fits the quota.
func (l *UserRateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	return l.limiter.Allow(ctx, fmt.Sprintf("user:%s", userID))
}
