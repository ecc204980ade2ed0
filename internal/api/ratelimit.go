package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTrackedClients bounds the limiter map; it is cleared when exceeded.
const maxTrackedClients = 10000

// RateLimitMiddleware allows rps requests per second per client IP.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			if len(limiters) >= maxTrackedClients {
				limiters = make(map[string]*rate.Limiter)
			}
			limiter = rate.NewLimiter(rate.Limit(rps), rps)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
