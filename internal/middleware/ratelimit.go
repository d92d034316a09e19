package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/pulse-chat/pkg/logger"
	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps one token bucket per key (client IP or user id)
type KeyedRateLimiter struct {
	keys  map[string]*rateLimiterEntry
	mu    sync.Mutex
	r     rate.Limit
	burst int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter allowing r events per second with the given burst
func NewKeyedRateLimiter(r rate.Limit, burst int) *KeyedRateLimiter {
	rl := &KeyedRateLimiter{
		keys:  make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *KeyedRateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.evictIdle(3 * time.Minute)
	}
}

func (rl *KeyedRateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.keys {
		if time.Since(entry.lastSeen) > idle {
			delete(rl.keys, key)
		}
	}
}

// GetLimiter returns the bucket for key, creating it on first use
func (rl *KeyedRateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.keys[key]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.keys[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Allow consumes one token for key
func (rl *KeyedRateLimiter) Allow(key string) bool {
	return rl.GetLimiter(key).Allow()
}

var (
	// Identity sync: 20 requests per minute
	AuthLimiter = NewKeyedRateLimiter(rate.Limit(20.0/60.0), 10)

	// General API: 600 requests per minute (10/sec)
	GeneralLimiter = NewKeyedRateLimiter(rate.Limit(10.0), 50)

	// Sending messages: 30 per minute with room for a quick burst
	ChatLimiter = NewKeyedRateLimiter(rate.Limit(30.0/60.0), 10)

	// Typing: clients refresh at most every 500ms, so 2/sec plus slack
	TypingLimiter = NewKeyedRateLimiter(rate.Limit(2.0), 4)
)

// RateLimitMiddleware limits by authenticated user when known, otherwise by IP
func RateLimitMiddleware(limiter *KeyedRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("userId")
		if key == "" {
			key = c.ClientIP()
		}

		if !limiter.Allow(key) {
			logger.Warn().
				Str("key", key).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please slow down.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AuthLimiter)
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

func ChatRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(ChatLimiter)
}

func TypingRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(TypingLimiter)
}
