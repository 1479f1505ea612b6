package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tripvote/internal/redis"
	"tripvote/internal/transport/httpdto"
)

// VoteRateLimitMiddleware limits vote submissions per client IP. Guests vote
// without credentials, so the IP is the only stable throttling key. A nil
// limiter disables throttling.
func VoteRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitBy(limiter, func(limiter *redis.RateLimiter, c *gin.Context) (*redis.RateLimitResult, error) {
		return limiter.AllowVote(c.Request.Context(), c.ClientIP())
	})
}

// SweepRateLimitMiddleware limits external sweep triggers per client IP. The
// sweep is re-entrant, so this protects the store from scan load, not
// correctness.
func SweepRateLimitMiddleware(limiter *redis.RateLimiter) gin.HandlerFunc {
	return limitBy(limiter, func(limiter *redis.RateLimiter, c *gin.Context) (*redis.RateLimitResult, error) {
		return limiter.AllowSweep(c.Request.Context(), c.ClientIP())
	})
}

func limitBy(limiter *redis.RateLimiter, check func(*redis.RateLimiter, *gin.Context) (*redis.RateLimitResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		result, err := check(limiter, c)
		if err != nil {
			// Redis being down must not block voting.
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse("rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
