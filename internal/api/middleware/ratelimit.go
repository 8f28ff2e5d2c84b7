package middleware

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"casaflow/pm/internal/config"
)

// clientLimiter stores rate limiters for a specific client.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware manages per-client rate limiting. The soft limit
// throttles chatty-but-legitimate callers; the hard limit cuts off abuse.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
	}
	// Start a background goroutine to clean up old client entries
	go rm.cleanupClients()
	return rm
}

// getClientIdentifier creates a unique key based on IP and, when present, the
// authenticated user (set by AuthMiddleware earlier in the chain).
func getClientIdentifier(c *gin.Context) string {
	return fmt.Sprintf("%s|%s", c.ClientIP(), CallerID(c))
}

// getClientLimiter retrieves or creates the rate limiters for a given client identifier.
func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitSoftRefillRate), rm.cfg.RateLimitSoftBucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitHardRefillRate), rm.cfg.RateLimitHardBucketSize),
		}
		rm.clients[identifier] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter
}

// cleanupClients periodically removes old client entries from the map.
func (rm *RateLimiterMiddleware) cleanupClients() {
	for {
		time.Sleep(10 * time.Minute)
		rm.mu.Lock()
		count := 0
		for id, client := range rm.clients {
			if time.Since(client.lastSeen) > 30*time.Minute {
				delete(rm.clients, id)
				count++
			}
		}
		rm.mu.Unlock()
		if count > 0 {
			log.Printf("Rate limiter cleanup removed %d old client entries.", count)
		}
	}
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := getClientIdentifier(c)
		limiter := rm.getClientLimiter(clientKey)

		if !limiter.hardLimiter.Allow() {
			log.Printf("Hard rate limit exceeded for client: %s on %s", clientKey, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		if !limiter.softLimiter.Allow() {
			log.Printf("Soft rate limit exceeded for client: %s on %s", clientKey, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
			return
		}

		c.Next()
	}
}
