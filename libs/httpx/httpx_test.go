package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(ok, mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rw.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "abc", seen)
}

func TestRecover(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rw.Code)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	assert.Error(t, DecodeJSON(req, &dst))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}{"name":"y"}`))
	assert.Error(t, DecodeJSON(req, &dst))
}

func TestMemoryLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }
	h := RateLimit(l, nil, false)(ok)

	codes := func() int {
		rw := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		h.ServeHTTP(rw, req)
		return rw.Code
	}
	assert.Equal(t, http.StatusOK, codes())
	assert.Equal(t, http.StatusOK, codes())
	assert.Equal(t, http.StatusTooManyRequests, codes())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, codes())
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, 1, time.Minute, "test")
	allowed, err := l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = l.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestRateLimitFailOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })

	l := NewRedisLimiter(rdb, 1, time.Minute, "test")

	rw := httptest.NewRecorder()
	RateLimit(l, nil, true)(ok).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rw.Code)

	rw = httptest.NewRecorder()
	RateLimit(l, nil, false)(ok).ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rw.Code)
}

func TestMemoryLimiterEvictsExpiredVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(5, time.Minute)
	l.now = func() time.Time { return now }

	for _, key := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		allowed, err := l.Allow(context.Background(), key)
		require.NoError(t, err)
		require.True(t, allowed)
	}
	assert.Len(t, l.visitors, 3)

	now = now.Add(2 * time.Minute)
	_, err := l.Allow(context.Background(), "10.0.0.4")
	require.NoError(t, err)
	assert.Len(t, l.visitors, 1, "expired visitors are dropped")
}

func TestClientKey(t *testing.T) {
	trusted, err := ParseTrustedProxies("10.0.0.0/8, 192.168.1.5")
	require.NoError(t, err)

	req := func(remote string, xff ...string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		for _, v := range xff {
			r.Header.Add("X-Forwarded-For", v)
		}
		return r
	}

	cases := []struct {
		name string
		r    *http.Request
		want string
	}{
		{"direct client", req("203.0.113.9:4000"), "203.0.113.9"},
		{"spoofed header from untrusted peer", req("203.0.113.9:4000", "1.1.1.1"), "203.0.113.9"},
		{"trusted proxy", req("10.1.2.3:80", "198.51.100.7"), "198.51.100.7"},
		{"client prepends a fake hop", req("10.1.2.3:80", "1.1.1.1, 198.51.100.7"), "198.51.100.7"},
		{"chain of trusted proxies", req("192.168.1.5:80", "198.51.100.7, 10.0.0.2"), "198.51.100.7"},
		{"repeated headers", req("10.1.2.3:80", "1.1.1.1", "198.51.100.8"), "198.51.100.8"},
		{"trusted proxy without header", req("10.1.2.3:80"), "10.1.2.3"},
		{"garbage hop", req("10.1.2.3:80", "not-an-ip"), "10.1.2.3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clientKey(tc.r, trusted))
		})
	}

	assert.Equal(t, "203.0.113.9", clientKey(req("203.0.113.9:4000", "1.1.1.1"), nil))
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ParseTrustedProxies("10.0.0.0/8,::1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParseTrustedProxies("10.0.0.0/99")
	assert.Error(t, err)
	_, err = ParseTrustedProxies("proxy.local")
	assert.Error(t, err)
}
