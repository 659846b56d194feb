package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	limiter service.RateLimitService
}

func NewRateLimitMiddleware(limiter service.RateLimitService) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// RateLimit limits authenticated callers per user and route.
func (rm *RateLimitMiddleware) RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			response.Error(c, http.StatusUnauthorized, "", "")
			return
		}

		key := fmt.Sprintf("rate_limit:%v:%s", userID, c.FullPath())
		rm.check(c, key, requests, window)
	}
}

// RateLimitIP limits public routes, including the websocket upgrade, per
// client IP.
func (rm *RateLimitMiddleware) RateLimitIP(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit_ip:%s:%s", c.ClientIP(), c.FullPath())
		rm.check(c, key, requests, window)
	}
}

// check lets the request through when the limiter itself is unavailable.
func (rm *RateLimitMiddleware) check(c *gin.Context, key string, requests int, window time.Duration) {
	allowed, err := rm.limiter.Allow(c.Request.Context(), key, requests, window)
	if err != nil {
		slog.Warn("Rate limit check failed", "key", key, "error", err)
		c.Next()
		return
	}

	if !allowed {
		c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
		response.Error(c, http.StatusTooManyRequests, "",
			fmt.Sprintf("Too many requests. Limit: %d per %v", requests, window))
		return
	}

	c.Next()
}
