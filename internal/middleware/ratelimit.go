// internal/middleware/ratelimit.go
//
// Token-bucket rate limiting for the API.
//
// Context
// -------
// Each caller gets its own golang.org/x/time/rate limiter.  Limit runs
// before authentication and keys on the client IP from requestinfo (or
// RemoteAddr, which chi's RealIP has already rewritten).  LimitWorkspace
// runs after a credential has been verified and keys on the workspace, so
// all clients sharing a key share one budget.  Rejections use the
// standard error envelope with RATE_LIMITED.
//
// Notes
// -----
//   - The Authorization header is never used as a key: an unverified token
//     is attacker-chosen.
//   - Idle limiters are swept on every sweepEvery-th request, so the map
//     cannot grow without bound under key churn.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yanizio/depl/internal/api"
	"github.com/yanizio/depl/internal/apperr"
	"github.com/yanizio/depl/internal/auth"
	"github.com/yanizio/depl/internal/metrics"
	"github.com/yanizio/depl/internal/requestinfo"
)

const (
	limiterIdle = 10 * time.Minute
	sweepEvery  = 1024
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements per-caller rate limiting.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	r        rate.Limit
	b        int
	hits     int
	now      func() time.Time
}

// NewRateLimiter allows rps sustained requests per caller with the given
// burst.  rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		r:        rate.Limit(rps),
		b:        burst,
		now:      time.Now,
	}
}

// getLimiter returns the limiter for key, creating it on first use.
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.hits++
	if rl.hits%sweepEvery == 0 {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > limiterIdle {
				delete(rl.limiters, k)
			}
		}
	}

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rl.r, rl.b)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.lim
}

// Limit rate limits requests per client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return rl.limitBy(clientKey, next)
}

// LimitWorkspace rate limits requests per authenticated workspace.  It
// must be mounted after the middleware that stores the workspace in the
// context; requests without one pass through.
func (rl *RateLimiter) LimitWorkspace(next http.Handler) http.Handler {
	return rl.limitBy(workspaceKey, next)
}

func (rl *RateLimiter) limitBy(key func(*http.Request) (string, bool), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k, ok := key(r)
		if rl.r <= 0 || !ok {
			next.ServeHTTP(w, r)
			return
		}

		lim := rl.getLimiter(k)
		if !lim.AllowN(rl.now(), 1) {
			metrics.RateLimitedTotal.Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter(rl.r)))
			api.Error(w, r, apperr.RateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) (string, bool) {
	if info := requestinfo.FromContext(r.Context()); info != nil && info.Geo.IP != nil {
		return "ip:" + info.Geo.IP.String(), true
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return "ip:" + host, true
	}
	return "ip:" + r.RemoteAddr, true
}

func workspaceKey(r *http.Request) (string, bool) {
	ws, ok := auth.Workspace(r.Context())
	if !ok || ws == nil {
		return "", false
	}
	return "ws:" + ws.ID, true
}

// retryAfter is the whole seconds until one token refills, at least 1.
func retryAfter(r rate.Limit) int {
	s := int(1 / float64(r))
	if s < 1 {
		return 1
	}
	return s
}
