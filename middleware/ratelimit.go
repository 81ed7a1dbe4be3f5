package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// ClientLimiter is a sliding-window request counter keyed by client IP.
// It guards the submission endpoint at the transport level; the
// per-location cooldown in the ratelimit package is the domain rule.
type ClientLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	limit    int
	window   time.Duration
}

// NewClientLimiter creates a limiter allowing limit requests per window.
func NewClientLimiter(limit int, window time.Duration) *ClientLimiter {
	return &ClientLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow checks if a request from the given key should be allowed.
func (l *ClientLimiter) Allow(key string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-l.window)

	valid := l.requests[key][:0]
	for _, t := range l.requests[key] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	l.requests[key] = valid

	if len(valid) < l.limit {
		l.requests[key] = append(valid, now)
		return true
	}
	return false
}

// RateLimit creates a rate limiting middleware keyed by client IP.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := NewClientLimiter(limit, window)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !limiter.Allow(clientIP) {
			log.Warnf("rate limit exceeded for IP: %s", clientIP)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
