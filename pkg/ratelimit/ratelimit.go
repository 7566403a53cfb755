package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result reports the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Limiter bounds request rates per identifier. The backing store is swappable;
// the redis-backed fixed window is the only production implementation so the
// guarantee holds across instances.
type Limiter interface {
	Allow(ctx context.Context, identifier string) (Result, error)
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	RateLimitKey(parts ...string) string
}

// FixedWindow counts requests per identifier in fixed windows of the supplied
// duration.
type FixedWindow struct {
	store  counterStore
	name   string
	limit  int64
	window time.Duration
}

// NewFixedWindow builds a fixed-window limiter named after the guarded surface.
func NewFixedWindow(store counterStore, name string, limit int, window time.Duration) (*FixedWindow, error) {
	if store == nil {
		return nil, fmt.Errorf("counter store is required")
	}
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}
	return &FixedWindow{
		store:  store,
		name:   name,
		limit:  int64(limit),
		window: window,
	}, nil
}

func (f *FixedWindow) Allow(ctx context.Context, identifier string) (Result, error) {
	key := f.store.RateLimitKey(f.name, identifier)
	count, err := f.store.IncrWithTTL(ctx, key, f.window)
	if err != nil {
		return Result{}, fmt.Errorf("increment rate limit counter: %w", err)
	}

	resetAt := time.Now().Add(f.window)
	if ttl, ttlErr := f.store.TTL(ctx, key); ttlErr == nil && ttl > 0 {
		resetAt = time.Now().Add(ttl)
	}

	remaining := f.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= f.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
