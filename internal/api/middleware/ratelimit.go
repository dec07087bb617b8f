package middleware

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores the rate limiter for a specific client.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterMiddleware is a per-client token bucket.
// Clients are keyed by authenticated user when known, otherwise by IP.
type RateLimiterMiddleware struct {
	name    string
	clients map[string]*clientLimiter
	mu      sync.Mutex
	refill  rate.Limit
	burst   int
}

// NewRateLimiterMiddleware creates a limiter that refills refillPerSecond tokens up to bucketSize.
func NewRateLimiterMiddleware(name string, refillPerSecond, bucketSize int) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		name:    name,
		clients: make(map[string]*clientLimiter),
		refill:  rate.Limit(refillPerSecond),
		burst:   bucketSize,
	}
	go rm.cleanupClients()
	return rm
}

func getClientIdentifier(c *gin.Context) string {
	if userID, ok := UserID(c); ok {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *rate.Limiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	cl, exists := rm.clients[identifier]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rm.refill, rm.burst)}
		rm.clients[identifier] = cl
	}
	cl.lastSeen = time.Now()
	return cl.limiter
}

// cleanupClients periodically removes idle client entries.
func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(limiterCleanupInterval)
		if n := rm.evictIdle(time.Now()); n > 0 {
			log.Printf("Rate limiter %s cleanup removed %d old client entries.", rm.name, n)
		}
	}
}

func (rm *RateLimiterMiddleware) evictIdle(now time.Time) int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if now.Sub(client.lastSeen) > limiterIdleTimeout {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := getClientIdentifier(c)
		if !rm.getClientLimiter(clientKey).Allow() {
			log.Printf("Rate limit %s exceeded for client: %s on %s %s", rm.name, clientKey, c.Request.Method, c.FullPath())
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
