package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"foundation-backend/internal/logger"
)

const rateWindow = time.Minute

// RateLimiter decides whether one more request from key fits its budget.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Counter is a shared fixed-window counter, such as *cache.Client.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type counterLimiter struct {
	counter Counter
	limit   int
}

// NewCounterLimiter allows limit requests per key per minute, counted in a
// store shared by every server instance.
func NewCounterLimiter(counter Counter, limit int) RateLimiter {
	return &counterLimiter{counter: counter, limit: limit}
}

func (l *counterLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.counter.Hit(ctx, key, rateWindow)
	if err != nil {
		return true, err
	}
	return n <= int64(l.limit), nil
}

type localEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*localEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter keeps a token bucket per key in process memory. A bucket
// idle for a full window is back at its burst and gets dropped.
func NewLocalLimiter(perMinute int) RateLimiter {
	return &localLimiter{
		limit:    rate.Every(rateWindow / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: make(map[string]*localEntry),
		now:      time.Now,
	}
}

func (l *localLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= rateWindow {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &localEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1), nil
}

func (l *localLimiter) sweep(now time.Time) {
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) >= rateWindow {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// limitByClient throttles a public form route per client IP. A failing
// limiter lets requests through.
func limitByClient(limiter RateLimiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path + ":" + clientIP(r)
		ok, err := limiter.Allow(r.Context(), key)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Rate limiter unavailable", "error", err)
		}
		if !ok {
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests", Code: "rate_limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
