package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"lumisync/internal/infrastructure/ratelimit"
	"lumisync/pkg/logger"
)

// RateLimit throttles requests per client IP using the shared limiter.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, wait := limiter.Allow(ip, ratelimit.ActionHTTPRequest)
			if !allowed {
				logger.Warn("RATE LIMIT: blocked request from IP %s (retry in %v)", ip, wait)
				seconds := int(wait.Seconds()) + 1
				c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": seconds,
				})
			}
			return next(c)
		}
	}
}
