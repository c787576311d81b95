package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mainichinihongo.app/web/internal/observability"
)

const (
	limiterSweepInterval = 3 * time.Minute
	limiterIdleTTL       = 5 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiter
	rate      rate.Limit
	perMinute int
	burst     int
	now       func() time.Time
	// OnLimit renders the refusal. Defaults to a 429 error body.
	OnLimit func(w http.ResponseWriter, r *http.Request)
}

// NewRateLimiter creates a per-IP limiter allowing perMinute requests with the given burst.
// Idle entries are swept until ctx is cancelled.
func NewRateLimiter(ctx context.Context, perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		limiters:  make(map[string]*ipLimiter),
		rate:      rate.Limit(float64(perMinute) / 60.0),
		perMinute: perMinute,
		burst:     burst,
		now:       time.Now,
	}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if l, ok := rl.limiters[ip]; ok {
		l.lastSeen = now
		return l.limiter
	}
	limiter := rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-limiterIdleTTL)
	for ip, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

// RetryAfter is the number of seconds until one more token is available.
func (rl *RateLimiter) RetryAfter() int {
	return max((60+rl.perMinute-1)/rl.perMinute, 1)
}

// Middleware enforces the limit on unsafe methods only; page views pass through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || rl.getLimiter(clientIP(r)).Allow() {
			next.ServeHTTP(w, r)
			return
		}
		observability.RateLimitedTotal.WithLabelValues(routePattern(r)).Inc()
		observability.FromContext(r.Context()).Info("rate limited", zap.String("remote_ip", clientIP(r)))
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter()))
		if rl.OnLimit != nil {
			rl.OnLimit(w, r)
			return
		}
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})
}
