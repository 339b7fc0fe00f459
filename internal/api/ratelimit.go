package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies a global token bucket of rps requests per
// second.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(rps), rps)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// clientIdleTTL is how long a client's bucket survives without requests.
const clientIdleTTL = 10 * time.Minute

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one bucket per client IP. Idle entries are swept at
// most once per ttl, on the request path.
type clientLimiters struct {
	rps   rate.Limit
	burst int
	ttl   time.Duration
	clock clockwork.Clock

	mu        sync.Mutex
	clients   map[string]*clientEntry
	lastSweep time.Time
}

func newClientLimiters(rps, burst int, ttl time.Duration, clock clockwork.Clock) *clientLimiters {
	return &clientLimiters{
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       ttl,
		clock:     clock,
		clients:   make(map[string]*clientEntry),
		lastSweep: clock.Now(),
	}
}

func (l *clientLimiters) allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.ttl {
		for k, e := range l.clients {
			if now.Sub(e.lastSeen) >= l.ttl {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}
	e, ok := l.clients[ip]
	if !ok {
		e = &clientEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

func (l *clientLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// ClientRateLimitMiddleware keeps a bucket per client IP. It guards the
// routes that write to the backend.
func ClientRateLimitMiddleware(rps, burst int) gin.HandlerFunc {
	return clientRateLimit(newClientLimiters(rps, burst, clientIdleTTL, clockwork.NewRealClock()))
}

func clientRateLimit(limiters *clientLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests from this client",
			})
			return
		}
		c.Next()
	}
}
