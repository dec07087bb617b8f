package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EvictIdle(t *testing.T) {
	rm := &RateLimiterMiddleware{name: "test", clients: map[string]*clientLimiter{}, refill: 1, burst: 1}
	rm.getClientLimiter("ip:1.1.1.1")
	rm.getClientLimiter("ip:2.2.2.2")
	rm.clients["ip:1.1.1.1"].lastSeen = time.Now().Add(-time.Hour)

	assert.Equal(t, 1, rm.evictIdle(time.Now()))
	assert.Len(t, rm.clients, 1)
	assert.Contains(t, rm.clients, "ip:2.2.2.2")
}
