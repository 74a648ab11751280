package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"boopstake/observability/logging"
	"boopstake/services/stake-gateway/auth"
)

// RateLimit shapes one class of routes.
type RateLimit struct {
	RequestsPerMinute float64
	Burst             int
}

// RateLimiter keeps one token bucket per caller per route class. Callers are
// identified by their authenticated handle when present, otherwise by client
// IP, so anonymous traffic cannot exhaust a user's budget.
type RateLimiter struct {
	log    *slog.Logger
	limits map[string]RateLimit

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

func NewRateLimiter(limits map[string]RateLimit, log *slog.Logger) *RateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RateLimiter{
		log:     log,
		limits:  limits,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Middleware enforces the named limit class; unknown classes pass through.
func (rl *RateLimiter) Middleware(class string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit, ok := rl.limits[class]
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			id := callerID(r)
			if !rl.obtain(class+"|"+id, limit).Allow() {
				rl.log.Warn("request throttled", "class", class, logging.MaskField("caller", id))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) obtain(key string, cfg RateLimit) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if limiter, ok := rl.buckets[key]; ok {
		return limiter
	}
	perSecond := cfg.RequestsPerMinute / 60.0
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	rl.buckets[key] = limiter
	go rl.expire(key)
	return limiter
}

func (rl *RateLimiter) expire(key string) {
	timer := time.NewTimer(5 * time.Minute)
	defer timer.Stop()
	<-timer.C
	rl.mu.Lock()
	delete(rl.buckets, key)
	rl.mu.Unlock()
}

func callerID(r *http.Request) string {
	if handle, ok := auth.HandleFromContext(r.Context()); ok {
		return "user:" + handle
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return "ip:" + ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := fwd
		if comma := strings.IndexByte(fwd, ','); comma > 0 {
			first = strings.TrimSpace(fwd[:comma])
		}
		if parsed := net.ParseIP(first); parsed != nil {
			return "ip:" + parsed.String()
		}
		return "ip:" + fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "ip:" + r.RemoteAddr
	}
	return "ip:" + host
}
