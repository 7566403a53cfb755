package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubCounterStore struct {
	counts  map[string]int64
	ttls    map[string]time.Duration
	incrErr error
}

func newStubCounterStore() *stubCounterStore {
	return &stubCounterStore{
		counts: map[string]int64{},
		ttls:   map[string]time.Duration{},
	}
}

func (s *stubCounterStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.counts[key]++
	if s.counts[key] == 1 {
		s.ttls[key] = ttl
	}
	return s.counts[key], nil
}

func (s *stubCounterStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	return s.ttls[key], nil
}

func (s *stubCounterStore) RateLimitKey(parts ...string) string {
	return "rate_limit:" + strings.Join(parts, ":")
}

func TestFixedWindowAllowsUpToLimit(t *testing.T) {
	store := newStubCounterStore()
	limiter, err := NewFixedWindow(store, "checkout", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(context.Background(), "203.0.113.7")
		if err != nil {
			t.Fatalf("allow %d: %v", i+1, err)
		}
		if !result.Allowed {
			t.Fatalf("request %d blocked within limit", i+1)
		}
		if want := int64(2 - i); result.Remaining != want {
			t.Fatalf("request %d remaining = %d, want %d", i+1, result.Remaining, want)
		}
	}

	result, err := limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if result.Allowed {
		t.Fatal("fourth request must be blocked")
	}
	if result.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", result.Remaining)
	}
}

func TestFixedWindowCountsIdentifiersSeparately(t *testing.T) {
	store := newStubCounterStore()
	limiter, err := NewFixedWindow(store, "checkout", 1, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	if result, _ := limiter.Allow(context.Background(), "203.0.113.7"); !result.Allowed {
		t.Fatal("first identifier blocked")
	}
	if result, _ := limiter.Allow(context.Background(), "198.51.100.9"); !result.Allowed {
		t.Fatal("second identifier must have its own window")
	}
	if result, _ := limiter.Allow(context.Background(), "203.0.113.7"); result.Allowed {
		t.Fatal("first identifier must be exhausted")
	}
}

func TestFixedWindowSurfacesStoreError(t *testing.T) {
	store := newStubCounterStore()
	store.incrErr = errors.New("connection refused")

	limiter, err := NewFixedWindow(store, "checkout", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	if _, err := limiter.Allow(context.Background(), "203.0.113.7"); err == nil {
		t.Fatal("expected store error to surface")
	}
}

func TestFixedWindowResetFollowsKeyTTL(t *testing.T) {
	store := newStubCounterStore()
	limiter, err := NewFixedWindow(store, "checkout", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	before := time.Now()
	result, err := limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if result.ResetAt.Before(before) {
		t.Fatal("reset must be in the future")
	}
	if result.ResetAt.After(before.Add(2 * time.Minute)) {
		t.Fatal("reset must not exceed the window")
	}
}

func TestNewFixedWindowValidatesArguments(t *testing.T) {
	store := newStubCounterStore()

	if _, err := NewFixedWindow(nil, "checkout", 3, time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewFixedWindow(store, "", 3, time.Minute); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewFixedWindow(store, "checkout", 0, time.Minute); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
	if _, err := NewFixedWindow(store, "checkout", 3, 0); err == nil {
		t.Fatal("expected error for non-positive window")
	}
}
