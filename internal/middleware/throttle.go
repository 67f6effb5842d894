package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nmang004/atlas-sub000/internal/utils"
	"golang.org/x/time/rate"
)

// IPThrottle is a per-client-IP token bucket. Buckets idle for longer than
// idleTTL are swept on access.
type IPThrottle struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	clients   map[string]*throttleClient
	lastSweep time.Time
}

type throttleClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPThrottle(perSecond float64, burst int) *IPThrottle {
	if burst < 1 {
		burst = 1
	}
	return &IPThrottle{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		clients: make(map[string]*throttleClient),
	}
}

// Allow consumes one token for ip.
func (t *IPThrottle) Allow(ip string) bool {
	now := time.Now()

	t.mu.Lock()
	if now.Sub(t.lastSweep) > t.idleTTL {
		for key, client := range t.clients {
			if now.Sub(client.lastSeen) > t.idleTTL {
				delete(t.clients, key)
			}
		}
		t.lastSweep = now
	}

	client, ok := t.clients[ip]
	if !ok {
		client = &throttleClient{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.clients[ip] = client
	}
	client.lastSeen = now
	t.mu.Unlock()

	return client.limiter.AllowN(now, 1)
}

// Throttle rejects requests over the per-IP budget with 429. A non-positive
// rate disables it.
func Throttle(t *IPThrottle) gin.HandlerFunc {
	return func(c *gin.Context) {
		if t == nil || t.limit <= 0 {
			c.Next()
			return
		}
		if !t.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.NewErrorResponse(http.StatusTooManyRequests, "Too many requests"))
			return
		}
		c.Next()
	}
}
