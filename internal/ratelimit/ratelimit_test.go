package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/internal/ratelimit"
)

// countingStore is a single-process Store for tests.
type countingStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newCountingStore() *countingStore {
	return &countingStore{counts: map[string]int64{}}
}

func (s *countingStore) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, 0, s.err
	}
	s.counts[key]++
	return s.counts[key], window, nil
}

func TestNewLimiter_Validation(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewLimiter(newCountingStore(), ratelimit.Config{Requests: 0, Window: time.Minute})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)

	_, err = ratelimit.NewLimiter(newCountingStore(), ratelimit.Config{Requests: 1})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)

	_, err = ratelimit.NewLimiter(nil, ratelimit.Config{Requests: 1, Window: time.Minute})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
}

func TestLimiter_Allow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l, err := ratelimit.NewLimiter(newCountingStore(), ratelimit.Config{Requests: 2, Window: time.Minute})
	require.NoError(t, err)

	for i := range 2 {
		res, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 1-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.Positive(t, res.RetryAfter(time.Now()))

	res, err = l.Allow(ctx, "b")
	require.NoError(t, err)
	assert.True(t, res.Allowed())
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	store := newCountingStore()
	l, err := ratelimit.NewLimiter(store, ratelimit.Config{Requests: 1, Window: time.Minute})
	require.NoError(t, err)

	denied := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := ratelimit.Middleware(l, ratelimit.ClientIP, denied, nil)(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/public/quotes/x", nil)
	req.RemoteAddr = "203.0.113.7:51000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	store.mu.Lock()
	store.err = errors.New("connection refused")
	store.mu.Unlock()

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "store failures fail open")
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "198.51.100.1:1234", want: "198.51.100.1"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "ignores cloudflare header", headers: map[string]string{"CF-Connecting-IP": "203.0.113.9"}, remote: "198.51.100.1:1", want: "198.51.100.1"},
		{name: "ignores forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, remote: "198.51.100.1:1", want: "198.51.100.1"},
		{name: "ignores real ip", headers: map[string]string{"X-Real-IP": "2001:db8::1"}, remote: "198.51.100.1:1", want: "198.51.100.1"},
		{name: "invalid remote addr", remote: "nope", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ratelimit.ClientIP(req))
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	assert.Equal(t, "public:198.51.100.1", ratelimit.WithPrefix("public", ratelimit.ClientIP)(req))
}

func TestTrustedClientIP(t *testing.T) {
	t.Parallel()

	trusted, err := ratelimit.ParseTrustedProxies([]string{"10.0.0.0/8", " 192.0.2.7 ", ""})
	require.NoError(t, err)
	require.Len(t, trusted, 2)
	key := ratelimit.TrustedClientIP(trusted)

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "untrusted peer ignores headers", headers: map[string]string{"X-Forwarded-For": "203.0.113.5", "X-Real-IP": "203.0.113.6"}, remote: "198.51.100.1:1", want: "198.51.100.1"},
		{name: "trusted peer uses forwarded for", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "skips trusted hops from the right", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 203.0.113.5, 10.0.0.2, 192.0.2.7"}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "spoofed leftmost entry is not the key", headers: map[string]string{"X-Forwarded-For": "8.8.8.8, 203.0.113.5"}, remote: "10.0.0.1:1", want: "203.0.113.5"},
		{name: "real ip from trusted peer", headers: map[string]string{"X-Real-IP": "2001:db8::1"}, remote: "192.0.2.7:1", want: "2001:db8::1"},
		{name: "garbage forwarded for falls back to real ip", headers: map[string]string{"X-Forwarded-For": "junk", "X-Real-IP": "203.0.113.8"}, remote: "10.0.0.1:1", want: "203.0.113.8"},
		{name: "trusted peer without headers", remote: "10.0.0.1:1", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, key(req))
		})
	}
}

func TestTrustedClientIP_NoProxies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.1:1"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")
	assert.Equal(t, "198.51.100.1", ratelimit.TrustedClientIP(nil)(req))
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"10.0.0.0/33", "proxy.internal"} {
		_, err := ratelimit.ParseTrustedProxies([]string{v})
		assert.ErrorIs(t, err, ratelimit.ErrInvalidTrustedProxy, v)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()

	client, err := ratelimit.Connect(ctx, ratelimit.ConnectConfig{URL: url, RetryAttempts: 1, RetryInterval: time.Second, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, ratelimit.Healthcheck(client)(ctx))

	store := ratelimit.NewRedisStore(client, "test:")
	key := uuid.NewString()

	count, ttl, err := store.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.LessOrEqual(t, ttl, time.Minute)

	count, _, err = store.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()
	_, err := ratelimit.Connect(context.Background(), ratelimit.ConnectConfig{URL: "://bad", ConnectTimeout: time.Second})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidRedisURL)
}
