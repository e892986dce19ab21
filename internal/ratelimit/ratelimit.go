package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Config is the fixed-window budget.
type Config struct {
	Requests int
	Window   time.Duration
}

func (c Config) validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("%w: requests must be positive, got %d", ErrInvalidConfig, c.Requests)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Result is the outcome of one check.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the request fits in the current window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is the wait until the window resets, or zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(r.ResetAt.Sub(now), 0)
}

// Store counts hits per key.
type Store interface {
	// Hit increments the counter for key, starting a new window when none is
	// open, and returns the count and the time left in the window.
	Hit(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}

// Limiter applies Config to keys through a Store.
type Limiter struct {
	store Store
	cfg   Config
	now   func() time.Time
}

func NewLimiter(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, cfg: cfg, now: time.Now}, nil
}

// Allow records one hit for key.
func (l *Limiter) Allow(ctx context.Context, key string) (*Result, error) {
	count, ttl, err := l.store.Hit(ctx, key, l.cfg.Window)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = l.cfg.Window
	}
	return &Result{
		Limit:     l.cfg.Requests,
		Remaining: l.cfg.Requests - int(count),
		ResetAt:   l.now().Add(ttl),
	}, nil
}
