package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/order-backend/internal/handler"
	"github.com/josh-kwaku/order-backend/internal/repository"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]*repository.IdempotencyEntry
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]*repository.IdempotencyEntry{}}
}

func (s *memStore) Get(_ context.Context, key string) (*repository.IdempotencyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.entries[key], nil
}

func (s *memStore) Set(_ context.Context, e *repository.IdempotencyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
	return nil
}

// countingHandler answers 201 with a body naming how many times it ran.
func countingHandler(status int) (http.Handler, *int) {
	calls := 0
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"call":%d,"echo":%q}`, calls, body)
	}), &calls
}

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysSameRequest(t *testing.T) {
	store := newMemStore()
	next, calls := countingHandler(http.StatusCreated)
	h := Idempotency(store, time.Hour)(next)

	first := post(h, "key-1", `{"quantity":1}`)
	second := post(h, "key-1", `{"quantity":1}`)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Empty(t, first.Header().Get(replayedHeader))
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	store := newMemStore()
	next, calls := countingHandler(http.StatusCreated)
	h := Idempotency(store, time.Hour)(next)

	post(h, "key-1", `{"quantity":1}`)
	rec := post(h, "key-1", `{"quantity":2}`)

	assert.Equal(t, 1, *calls)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), handler.ErrIdempotencyConflict.Code)
}

func TestIdempotency_PassThrough(t *testing.T) {
	store := newMemStore()
	next, calls := countingHandler(http.StatusCreated)
	h := Idempotency(store, time.Hour)(next)

	post(h, "", `{}`)
	post(h, "", `{}`)
	assert.Equal(t, 2, *calls)
	assert.Empty(t, store.entries)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/x/status", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyKeyHeader, "key-2")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, 3, *calls)
	assert.Empty(t, store.entries)
}

func TestIdempotency_ServerErrorsNotStored(t *testing.T) {
	store := newMemStore()
	next, calls := countingHandler(http.StatusInternalServerError)
	h := Idempotency(store, time.Hour)(next)

	post(h, "key-1", `{}`)
	post(h, "key-1", `{}`)

	assert.Equal(t, 2, *calls)
	assert.Empty(t, store.entries)
}

func TestIdempotency_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("connection refused")
	next, calls := countingHandler(http.StatusCreated)

	rec := post(Idempotency(store, time.Hour)(next), "key-1", `{}`)

	assert.Equal(t, 0, *calls)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(traceIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(traceIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, rec.Header().Get(traceIDHeader))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestLogging_RecordsStatus(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Tracing(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	out := buf.String()
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}

type countingCleaner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingCleaner) CleanExpired(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 1, nil
}

func (c *countingCleaner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestPurgeExpiredKeys(t *testing.T) {
	cleaner := &countingCleaner{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		PurgeExpiredKeys(ctx, cleaner, slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Millisecond)
	}()

	require.Eventually(t, func() bool { return cleaner.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
}
