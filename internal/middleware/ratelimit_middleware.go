package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IngestRateLimiter caps ingestion batches per client IP per minute so a
// runaway scraper cannot flood the catalog. A limit of 0 disables it.
type IngestRateLimiter struct {
	mu       sync.Mutex
	limit    int
	attempts map[string]*attemptInfo
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewIngestRateLimiter constructs a limiter allowing limitPerMinute batches
// per IP.
func NewIngestRateLimiter(limitPerMinute int) *IngestRateLimiter {
	rl := &IngestRateLimiter{
		limit:    limitPerMinute,
		attempts: make(map[string]*attemptInfo),
	}
	if rl.limit > 0 {
		go rl.cleanup()
	}
	return rl
}

// Handle returns the gin middleware enforcing the limit.
func (r *IngestRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.limit > 0 && !r.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(429, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}

// allow checks if ip can submit another batch within the current window.
func (r *IngestRateLimiter) allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	info, exists := r.attempts[ip]
	if !exists {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	// Reset if window expired
	if now.Sub(info.firstAt) > time.Minute {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

func (r *IngestRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	for range ticker.C {
		r.mu.Lock()
		now := time.Now()
		for ip, info := range r.attempts {
			if now.Sub(info.firstAt) > time.Minute {
				delete(r.attempts, ip)
			}
		}
		r.mu.Unlock()
	}
}
