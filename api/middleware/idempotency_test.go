package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubIdempotencyStore struct {
	values map[string]string
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{values: map[string]string{}}
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubIdempotencyStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *stubIdempotencyStore) WebhookEventKey(provider, eventID string) string {
	return "webhook:" + provider + ":" + eventID
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func checkoutRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, checkoutRequest(`{"items":[]}`, "key-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("first status %d, want 201", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, checkoutRequest(`{"items":[]}`, "key-1"))

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if second.Code != http.StatusCreated {
		t.Fatalf("replay status %d, want stored 201", second.Code)
	}
	if second.Body.String() != `{"success":true}` {
		t.Fatalf("replay body %q, want stored body", second.Body.String())
	}
	if got := second.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("replay content type %q", got)
	}
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newStubIdempotencyStore()
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{"items":[1]}`, "key-1"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, checkoutRequest(`{"items":[2]}`, "key-1"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409 for reused key with different body", rec.Code)
	}
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, ""))
	handler.ServeHTTP(httptest.NewRecorder(), checkoutRequest(`{}`, ""))

	if calls != 2 {
		t.Fatalf("handler ran %d times, keyless requests must not be deduplicated", calls)
	}
	if len(store.values) != 0 {
		t.Fatal("keyless requests must not be stored")
	}
}

func TestIdempotencyIgnoresUnmatchedRoutes(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Idempotency-Key", "key-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req.Clone(req.Context()))

	if calls != 2 {
		t.Fatalf("handler ran %d times, non-checkout routes must not be deduplicated", calls)
	}
}

func TestIdempotencyScopesKeysPerUser(t *testing.T) {
	store := newStubIdempotencyStore()
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	first := checkoutRequest(`{}`, "key-1")
	first = first.WithContext(WithUserID(first.Context(), "user-a"))
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := checkoutRequest(`{}`, "key-1")
	second = second.WithContext(WithUserID(second.Context(), "user-b"))
	handler.ServeHTTP(httptest.NewRecorder(), second)

	if calls != 2 {
		t.Fatalf("handler ran %d times, different users must not share idempotency records", calls)
	}
}
