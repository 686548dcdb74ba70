package rpc

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"launchpad/observability"
)

type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
	// TrustProxyHeaders keys clients by X-Real-IP or X-Forwarded-For instead
	// of the connection address.
	TrustProxyHeaders bool
}

type rateEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client. Idle buckets are dropped by
// Sweep.
type RateLimiter struct {
	limit    RateLimit
	mu       sync.Mutex
	visitors map[string]*rateEntry
	clockNow func() time.Time
}

func NewRateLimiter(limit RateLimit) *RateLimiter {
	if limit.RequestsPerSecond <= 0 {
		limit.RequestsPerSecond = 1
	}
	if limit.Burst <= 0 {
		limit.Burst = 1
	}
	return &RateLimiter{
		limit:    limit,
		visitors: make(map[string]*rateEntry),
		clockNow: time.Now,
	}
}

func (r *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !r.Allow(clientID(req, r.limit.TrustProxyHeaders)) {
			observability.ModuleMetrics().RecordThrottle("rpc", "rate_limit")
			writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, http.StatusText(http.StatusTooManyRequests), nil)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// Allow consumes one token from id's bucket.
func (r *RateLimiter) Allow(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clockNow()
	entry, ok := r.visitors[id]
	if !ok {
		entry = &rateEntry{limiter: rate.NewLimiter(rate.Limit(r.limit.RequestsPerSecond), r.limit.Burst)}
		r.visitors[id] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// Sweep forgets clients idle for longer than idle.
func (r *RateLimiter) Sweep(idle time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.clockNow().Add(-idle)
	for id, entry := range r.visitors {
		if entry.lastSeen.Before(cutoff) {
			delete(r.visitors, id)
		}
	}
}

func (r *RateLimiter) visitorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visitors)
}

func clientID(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		first = strings.TrimSpace(first)
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
		return first
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
