package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
	"github.com/linkcart/storefront-core/pkg/idempotency"
	"github.com/linkcart/storefront-core/pkg/redis"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.ErrNil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value.(string)
	f.ttl[key] = ttl
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	f.ttl[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func newGuard(t *testing.T, store *fakeStore) *idempotency.Guard {
	t.Helper()
	guard, err := idempotency.NewGuard(store, time.Minute)
	require.NoError(t, err)
	return guard
}

func orderRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload.Error.Code
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := Idempotency(newGuard(t, newFakeStore()), IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(`{}`, ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(`{}`, strings.Repeat("k", maxIdempotencyKey+1)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotencyReplaysFirstResponse(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(newGuard(t, store), OrderIdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order":1}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest(`{"note":"x"}`, "abc"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, orderRequest(`{"note":"x"}`, "abc"))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Equal(t, "true", second.Header().Get(replayedHeader))
	assert.Equal(t, `{"order":1}`, second.Body.String())
	assert.Equal(t, 1, calls)

	for key, ttl := range store.ttl {
		assert.Equal(t, OrderIdempotencyTTL, ttl, key)
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	handler := Idempotency(newGuard(t, newFakeStore()), IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{"foo":"bar"}`, "xyz"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(`{"foo":"diff"}`, "xyz"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeConflict), errorCode(t, rec))
}

func TestIdempotencyInFlightConflicts(t *testing.T) {
	store := newFakeStore()
	guard := newGuard(t, store)

	held, err := guard.Claim(context.Background(), callerScope(orderRequest(`{}`, "busy")), "busy")
	require.NoError(t, err)
	require.Equal(t, idempotency.Claimed, held.State)

	called := false
	handler := Idempotency(guard, IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, orderRequest(`{}`, "busy"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, called)
}

func TestIdempotencyReleasesOnServerError(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(newGuard(t, store), IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{}`, "retry"))
	assert.Empty(t, store.data)

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{}`, "retry"))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyReleasesOnPanic(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(newGuard(t, store), IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{}`, "panic"))
	})
	assert.Empty(t, store.data)
}

func TestIdempotencyScopesKeysByCartSession(t *testing.T) {
	calls := 0
	handler := Idempotency(newGuard(t, newFakeStore()), IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, session := range []string{"session-a", "session-b"} {
		req := orderRequest(`{"name":"x"}`, "same-key")
		req = req.WithContext(WithCartSession(req.Context(), session))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
	assert.Equal(t, 2, calls)
}

func TestIdempotencyWithoutGuardPassesThrough(t *testing.T) {
	called := false
	handler := Idempotency(nil, IdempotencyTTL, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{}`, ""))
	assert.True(t, called)
}
