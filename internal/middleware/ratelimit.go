package middleware

import (
	"net/http"
	"strconv"
	"time"

	"enact/internal/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware enforces a per-user fixed window on the routes it
// wraps. It must run after AuthMiddleware so the user ID is available.
func RateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := strconv.FormatInt(UserID(c), 10)

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))

		if !limiter.Allow(identifier) {
			resetAt := limiter.ResetAt(identifier)
			retryAfter := int(time.Until(resetAt).Seconds() + 1)
			if retryAfter < 1 {
				retryAfter = 1
			}

			logger.Warn("Rate limit exceeded", zap.String("user", identifier))

			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please wait a moment before trying again.",
			})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(limiter.Remaining(identifier)))
		c.Next()
	}
}
