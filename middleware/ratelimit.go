package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IPRateLimiter is a sliding-window request counter keyed by client IP.
type IPRateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.Reserve(ip) == 0
}

// Reserve records a request from ip and returns zero, or, when ip is over
// its limit, how long until the oldest request leaves the window. Rejected
// requests are not recorded.
func (rl *IPRateLimiter) Reserve(ip string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	live := rl.prune(rl.hits[ip], now)
	if len(live) >= rl.limit {
		rl.hits[ip] = live
		return live[0].Add(rl.window).Sub(now)
	}
	rl.hits[ip] = append(live, now)
	return 0
}

// prune drops timestamps that have left the window. hits is oldest first.
func (rl *IPRateLimiter) prune(hits []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rl.window)
	for len(hits) > 0 && !hits[0].After(cutoff) {
		hits = hits[1:]
	}
	return hits
}

// Sweep forgets clients with no request inside the window.
func (rl *IPRateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, hits := range rl.hits {
		if len(rl.prune(hits, now)) == 0 {
			delete(rl.hits, ip)
		}
	}
}

// RateLimit answers 429 with a Retry-After in whole seconds once the
// client is over its limit.
func RateLimit(rl *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if wait := rl.Reserve(c.ClientIP()); wait > 0 {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests."})
			return
		}
		c.Next()
	}
}
