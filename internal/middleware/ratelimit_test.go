// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/freelancer-packages/internal/core"
)

func newLimiterClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return rdb, mr
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func loginRequest(remoteAddr, forwardedFor string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return req
}

func countAllowed(h http.Handler, reqs []*http.Request) int {
	allowed := 0
	for _, req := range reqs {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	return allowed
}

func TestRateLimiter(t *testing.T) {
	rdb, _ := newLimiterClient(t)

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit:  PerMinute(2, 2),
		Prefix: "test",
	}).Handler(okHandler)

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for range 3 {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, loginRequest("10.0.0.1:5555", ""))
		codes = append(codes, last.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "2;w=60", last.Header().Get("RateLimit-Policy"))
	assert.NotContains(t, last.Header().Get("Content-Type"), "json")
}

func TestRateLimiterIgnoresSpoofedForwardedFor(t *testing.T) {
	rdb, _ := newLimiterClient(t)

	limiter := NewRateLimiter(rdb, RateLimitConfig{
		Limit:   PerMinute(2, 2),
		KeyFunc: KeyByIPAndEndpoint,
	})

	t.Run("without trusted proxies", func(t *testing.T) {
		h := TrustedRealIP(nil)(limiter.Handler(okHandler))

		reqs := make([]*http.Request, 0, 20)
		for i := range 20 {
			reqs = append(reqs, loginRequest("203.0.113.7:4000", fmt.Sprintf("1.2.3.%d", i)))
		}

		assert.Equal(t, 2, countAllowed(h, reqs))
	})

	t.Run("from a peer that is not a trusted proxy", func(t *testing.T) {
		trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		h := TrustedRealIP(trusted)(limiter.Handler(okHandler))

		reqs := make([]*http.Request, 0, 20)
		for i := range 20 {
			reqs = append(reqs, loginRequest("198.51.100.9:4000", fmt.Sprintf("1.2.3.%d", i)))
		}

		assert.Equal(t, 2, countAllowed(h, reqs))
	})
}

func TestTrustedRealIP(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	require.NoError(t, err)

	var seen string
	h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), loginRequest("10.1.2.3:443", "198.51.100.20"))
	assert.Equal(t, "198.51.100.20", seen, "proxy supplies the client address")

	h.ServeHTTP(httptest.NewRecorder(), loginRequest("198.51.100.9:443", "1.2.3.4"))
	assert.Equal(t, "198.51.100.9", seen, "untrusted peers keep their socket address")
}

func TestRateLimiterOnLimited(t *testing.T) {
	rdb, _ := newLimiterClient(t)

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(1, 1),
		OnLimited: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("<p>slow down</p>"))
		},
	}).Handler(okHandler)

	h.ServeHTTP(httptest.NewRecorder(), loginRequest("10.0.0.1:1", ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, loginRequest("10.0.0.1:1", ""))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "<p>slow down</p>", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	rdb, mr := newLimiterClient(t)
	mr.Close()

	h := NewRateLimiter(rdb, RateLimitConfig{Limit: PerMinute(2, 2)}).Handler(okHandler)

	reqs := make([]*http.Request, 0, 5)
	for range 5 {
		reqs = append(reqs, loginRequest("10.0.0.1:1", ""))
	}

	assert.Equal(t, 2, countAllowed(h, reqs))
}

func TestRateLimiterSkip(t *testing.T) {
	rdb, _ := newLimiterClient(t)

	h := NewRateLimiter(rdb, RateLimitConfig{
		Limit: PerMinute(1, 1),
		Skip:  func(r *http.Request) bool { return r.URL.Path == "/login" },
	}).Handler(okHandler)

	reqs := make([]*http.Request, 0, 5)
	for range 5 {
		reqs = append(reqs, loginRequest("10.0.0.1:1", ""))
	}

	assert.Equal(t, 5, countAllowed(h, reqs))
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 127.0.0.1 ", "", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("127.0.0.1/32"),
		netip.MustParsePrefix("::1/128"),
	}, got)

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestKeyByAccount(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/packages/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	req.Header.Set("X-Forwarded-For", "9.9.9.9")
	assert.Equal(t, "ratelimit:ip:10.0.0.2", KeyByAccount(req))

	req = req.WithContext(WithSession(req.Context(), core.Session{AccountID: 42, SessionID: "s"}))
	assert.Equal(t, "ratelimit:account:42", KeyByAccount(req))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "/packages/{id}/edit", normalizeEndpoint("/packages/17/edit"))
	assert.Equal(t, "/login", normalizeEndpoint("/login"))
}
