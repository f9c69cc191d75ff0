package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/kbukum/authtoken/errors"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// RequestsPerMinute is the maximum number of requests allowed per minute per key.
	RequestsPerMinute int
	// Paths restricts limiting to these exact paths. Empty limits every path.
	Paths []string
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*http.Request) string
	// Now replaces time.Now. Tests only.
	Now func() time.Time
}

// RateLimit returns middleware that applies per-key sliding-window rate
// limiting. It is mounted in front of the login route to slow password
// guessing; rejected requests get 429 RATE_LIMITED with Retry-After.
func RateLimit(cfg RateLimitConfig) Middleware {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	paths := make(map[string]bool, len(cfg.Paths))
	for _, p := range cfg.Paths {
		paths[p] = true
	}

	rl := &rateLimiter{
		requests: make(map[string][]time.Time),
		limit:    cfg.RequestsPerMinute,
		now:      cfg.Now,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(paths) > 0 && !paths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.allow(cfg.KeyFunc(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute/time.Second)))
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(apperrors.RateLimited().ToResponse())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPBasedKey extracts the client IP for use as a rate limit key.
func IPBasedKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	now      func() time.Time
	swept    time.Time
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-time.Minute)
	rl.sweep(now, cutoff)

	valid := filterByTime(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// sweep drops idle keys at most every five minutes. Caller holds mu.
func (rl *rateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.swept) < 5*time.Minute {
		return
	}
	rl.swept = now
	for key, times := range rl.requests {
		valid := filterByTime(times, cutoff)
		if len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func filterByTime(times []time.Time, cutoff time.Time) []time.Time {
	var result []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			result = append(result, t)
		}
	}
	return result
}
