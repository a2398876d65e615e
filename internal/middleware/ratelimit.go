package middleware

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/moviezone/linkgate/internal/config"
)

// RateLimiter implements a sliding window rate limiter using Redis
type RateLimiter struct {
	client   *redis.Client
	requests int
	duration time.Duration
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *redis.Client, cfg *config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client:   client,
		requests: cfg.Requests,
		duration: cfg.Duration,
	}
}

// Middleware returns a Gin middleware for rate limiting
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := "ratelimit:" + ip

		ctx := c.Request.Context()

		now := time.Now().UnixNano()
		windowStart := now - rl.duration.Nanoseconds()

		// Trim entries that fell out of the window, then count the rest
		pipe := rl.client.Pipeline()
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
		countCmd := pipe.ZCard(ctx, key)

		_, err := pipe.Exec(ctx)
		if err != nil && err != redis.Nil {
			// Fail open: a Redis outage must not take resolution down with it
			log.Printf("rate_limit redis error (precheck): ip=%s path=%s err=%v", ip, c.Request.URL.Path, err)
			c.Next()
			return
		}

		count := countCmd.Val()

		if count >= int64(rl.requests) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rl.duration).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(int(rl.duration.Seconds())))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		// Record this request in the window
		pipe = rl.client.Pipeline()
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(now),
			Member: now,
		})
		pipe.Expire(ctx, key, rl.duration)
		if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
			log.Printf("rate_limit redis error (record): ip=%s path=%s err=%v", ip, c.Request.URL.Path, err)
		}

		remaining := rl.requests - int(count) - 1
		if remaining < 0 {
			remaining = 0
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rl.duration).Unix(), 10))

		c.Next()
	}
}
