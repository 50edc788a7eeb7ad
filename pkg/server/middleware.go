package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sol-relay/pkg/logging"
	"sol-relay/pkg/observability"
)

// rateLimit keys admission control by API key when the caller presents one,
// otherwise by client IP. Denials carry a Retry-After hint.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key == "" {
			key = c.ClientIP()
		}

		decision := s.limiter.Allow(key)
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter(time.Now()).Seconds())
			observability.RateLimitedTotal.Inc()
			s.log.Info().
				Str(logging.FieldCaller, key).
				Int("retry_after", retryAfter).
				Msg("rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Next()
	}
}
