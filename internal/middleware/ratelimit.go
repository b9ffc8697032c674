// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// LimitedFunc answers a request that ran out of budget. Retry-After is
// already set when it runs.
type LimitedFunc func(w http.ResponseWriter, r *http.Request)

type RateLimitConfig struct {
	Limit     redis_rate.Limit
	Prefix    string
	KeyFunc   func(*http.Request) string
	Skip      func(*http.Request) bool
	OnLimited LimitedFunc
}

// RateLimiter counts requests in Redis and falls back to per-process token
// buckets while Redis is unreachable.
type RateLimiter struct {
	redis    *redis_rate.Limiter
	fallback *localBuckets
	cfg      RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = plainTooManyRequests
	}

	return &RateLimiter{
		redis:    redis_rate.NewLimiter(rdb),
		fallback: newLocalBuckets(cfg.Limit),
		cfg:      cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.cfg.Skip != nil && rl.cfg.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.key(r)
		d := rl.decide(r.Context(), key)

		h := w.Header()
		h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d",
			rl.cfg.Limit.Rate, int(rl.cfg.Limit.Period.Seconds())))
		h.Set("RateLimit", fmt.Sprintf("%d;t=%d",
			d.remaining, ceilSeconds(d.resetAfter)))

		if !d.allowed {
			h.Set("Retry-After", strconv.Itoa(max(ceilSeconds(d.retryAfter), 1)))
			slog.InfoContext(r.Context(), "rate limited", "key", key)
			rl.cfg.OnLimited(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) key(r *http.Request) string {
	key := rl.cfg.KeyFunc(r)
	if rl.cfg.Prefix == "" {
		return key
	}
	return rl.cfg.Prefix + ":" + key
}

type decision struct {
	allowed    bool
	remaining  int
	retryAfter time.Duration
	resetAfter time.Duration
}

func (rl *RateLimiter) decide(ctx context.Context, key string) decision {
	res, err := rl.redis.Allow(ctx, key, rl.cfg.Limit)
	if err != nil {
		slog.WarnContext(ctx, "rate limiter using local buckets", "error", err)
		return rl.fallback.take(key)
	}

	return decision{
		allowed:    res.Allowed > 0,
		remaining:  res.Remaining,
		retryAfter: res.RetryAfter,
		resetAfter: res.ResetAfter,
	}
}

func plainTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + ClientIP(r)
}

// KeyByAccount keys authenticated callers by account and everyone else by
// client address.
func KeyByAccount(r *http.Request) string {
	if s := GetSession(r.Context()); s.IsAuthenticated() {
		return "ratelimit:account:" + strconv.FormatInt(s.AccountID, 10)
	}
	return KeyByIP(r)
}

// KeyByIPAndEndpoint gives each route its own budget per address, so
// failed logins do not eat into registrations.
func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint folds package ids so /packages/1/edit and
// /packages/2/edit share a bucket.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if _, err := strconv.ParseUint(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func PerMinute(requests, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   requests,
		Burst:  burst,
		Period: time.Minute,
	}
}

const bucketIdleTTL = 10 * time.Minute

// localBuckets is swept lazily on use instead of by a background goroutine.
type localBuckets struct {
	mu        sync.Mutex
	every     rate.Limit
	burst     int
	buckets   map[string]*bucket
	lastSweep time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalBuckets(limit redis_rate.Limit) *localBuckets {
	every := rate.Inf
	if limit.Rate > 0 && limit.Period > 0 {
		every = rate.Every(limit.Period / time.Duration(limit.Rate))
	}

	return &localBuckets{
		every:     every,
		burst:     limit.Burst,
		buckets:   make(map[string]*bucket),
		lastSweep: time.Now(),
	}
}

func (l *localBuckets) take(key string) decision {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > bucketIdleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if !res.OK() || delay > 0 {
		res.CancelAt(now)
		return decision{retryAfter: max(delay, time.Second)}
	}

	return decision{
		allowed:   true,
		remaining: int(b.limiter.TokensAt(now)),
	}
}
