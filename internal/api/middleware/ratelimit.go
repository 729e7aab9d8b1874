package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/John-Michael-Goco/CampusGoWeb/internal/api/apierr"
	"github.com/John-Michael-Goco/CampusGoWeb/internal/dependencies/clock"
)

// RateLimiter hands out a token bucket per client IP.
// Buckets idle for longer than a minute are swept on the next request.
type RateLimiter struct {
	clock     clock.Clock
	limit     rate.Limit
	burst     int
	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const idleClientTTL = time.Minute

// NewRateLimiter allows perMinute requests per client IP per minute,
// with bursts up to perMinute.
func NewRateLimiter(perMinute int, clk clock.Clock) *RateLimiter {
	return &RateLimiter{
		clock:   clk,
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   perMinute,
		clients: make(map[string]*client),
	}
}

// Allow reports whether a request from key may proceed now. When it may
// not, it also returns how long until the next token is available.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.clock.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= idleClientTTL {
		for k, c := range rl.clients {
			if now.Sub(c.lastSeen) >= idleClientTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	c, ok := rl.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len returns the number of tracked clients
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimit rejects requests over the limiter's budget with 429 and a
// Retry-After header in whole seconds.
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := rl.Allow(clientIP(r))
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				apierr.WriteError(w, apierr.NewTooManyRequestsError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys on the connection's remote address. Forwarded headers
// are ignored since any client can set them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
