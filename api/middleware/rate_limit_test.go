package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/linkcart/storefront-core/pkg/errors"
)

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeRateStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

func couponAttempt(handler http.Handler, remote, forwarded string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/coupon", nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := &fakeRateStore{}
	handler := RateLimit(RateLimitPolicy{Name: "coupon", Window: time.Minute, Limit: 2}, store, nil)(okHandler())

	assert.Equal(t, http.StatusOK, couponAttempt(handler, "1.2.3.4:5678", "").Code)
	assert.Equal(t, http.StatusOK, couponAttempt(handler, "1.2.3.4:5678", "").Code)

	rec := couponAttempt(handler, "1.2.3.4:5678", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), errorCode(t, rec))
	assert.Contains(t, store.counts, "ip:coupon:1.2.3.4")
}

func TestRateLimitSeparatesClients(t *testing.T) {
	handler := RateLimit(RateLimitPolicy{Name: "coupon", Window: time.Minute, Limit: 1}, &fakeRateStore{}, nil)(okHandler())
	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		assert.Equal(t, http.StatusOK, couponAttempt(handler, "", ip+", 172.16.0.1").Code, ip)
	}
}

func TestRateLimitPassThrough(t *testing.T) {
	failing := RateLimit(RateLimitPolicy{Name: "coupon", Window: time.Minute, Limit: 1}, &fakeRateStore{err: errors.New("redis down")}, nil)(okHandler())
	assert.Equal(t, http.StatusOK, couponAttempt(failing, "", "").Code, "store errors fail open")

	disabled := RateLimit(RateLimitPolicy{Name: "coupon", Window: time.Minute}, &fakeRateStore{}, nil)(okHandler())
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, couponAttempt(disabled, "", "").Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:443"
	assert.Equal(t, "9.9.9.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "8.8.8.8")
	assert.Equal(t, "8.8.8.8", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 7.7.7.7 , 10.0.0.1")
	assert.Equal(t, "7.7.7.7", ClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "unix-socket"
	assert.Equal(t, "unix-socket", ClientIP(req))
}
