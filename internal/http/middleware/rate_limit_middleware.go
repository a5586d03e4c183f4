package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sandeepkv93/products-api/internal/http/response"
	"github.com/sandeepkv93/products-api/internal/observability"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

type RateLimiter struct {
	limiter Limiter
	limit   int
	window  time.Duration
	mode    FailureMode
	scope   string
	backend string
}

// NewRateLimiter limits per client IP using process-local counters.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := NewDistributedRateLimiter(NewLocalFixedWindowLimiter(), limit, window, FailClosed, "api")
	rl.backend = "local"
	return rl
}

func NewDistributedRateLimiter(limiter Limiter, limit int, window time.Duration, mode FailureMode, scope string) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	return &RateLimiter{
		limiter: limiter,
		limit:   limit,
		window:  window,
		mode:    mode,
		scope:   scope,
		backend: "redis",
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			d, err := rl.limiter.Allow(ctx, clientIPKey(r), rl.limit, rl.window)
			if err != nil {
				if rl.mode == FailOpen {
					observability.RecordRateLimitDecision(ctx, rl.scope, "backend_error_allow", rl.backend)
					slog.WarnContext(ctx, "rate limiter backend unavailable, allowing request",
						"scope", rl.scope,
						"error", err,
					)
					next.ServeHTTP(w, r)
					return
				}
				observability.RecordRateLimitDecision(ctx, rl.scope, "backend_error_deny", rl.backend)
				rl.reject(w, r, Decision{RetryAfter: rl.window, ResetAt: time.Now().Add(rl.window)})
				return
			}

			rl.writeHeaders(w, d)
			if !d.Allowed {
				observability.RecordRateLimitDecision(ctx, rl.scope, "deny", rl.backend)
				observability.RecordRateLimitRetryAfter(ctx, rl.scope, d.RetryAfter)
				rl.reject(w, r, d)
				return
			}
			observability.RecordRateLimitDecision(ctx, rl.scope, "allow", rl.backend)
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) writeHeaders(w http.ResponseWriter, d Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(d.Remaining, 0)))
	if !d.ResetAt.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}

func (rl *RateLimiter) reject(w http.ResponseWriter, r *http.Request, d Decision) {
	rl.writeHeaders(w, Decision{ResetAt: d.ResetAt})
	w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
	response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
}

type windowCounter struct {
	count int
	start time.Time
}

type localFixedWindowLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	sweepAt  time.Time
	now      func() time.Time
}

func NewLocalFixedWindowLimiter() Limiter {
	return &localFixedWindowLimiter{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (l *localFixedWindowLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.sweepAt) {
		for k, c := range l.counters {
			if now.Sub(c.start) >= window {
				delete(l.counters, k)
			}
		}
		l.sweepAt = now.Add(window)
	}

	c, ok := l.counters[key]
	if !ok || now.Sub(c.start) >= window {
		c = &windowCounter{start: now}
		l.counters[key] = c
	}
	resetAt := c.start.Add(window)
	if c.count >= limit {
		return Decision{Allowed: false, RetryAfter: resetAt.Sub(now), ResetAt: resetAt}, nil
	}
	c.count++
	return Decision{Allowed: true, Remaining: limit - c.count, ResetAt: resetAt}, nil
}

func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(d.Round(time.Second) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
