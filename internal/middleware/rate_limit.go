package middleware

import (
	"log"
	"net/http"
	"time"

	"visitdesk/internal/caching"
	"visitdesk/internal/common"

	"github.com/labstack/echo/v4"
)

// KioskRateLimit throttles the unauthenticated kiosk endpoints per client IP
// using the shared redis counter. Redis being down fails open so the lobby
// kiosk keeps working.
func KioskRateLimit(cacheSvc caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Path() + ":" + c.RealIP()

			limited, err := cacheSvc.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				log.Printf("Rate limit check failed for %s: %v", key, err)
				return next(c)
			}
			if limited {
				return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse(
					"RATE_LIMITED", "too many requests, try again shortly", nil))
			}

			if err := cacheSvc.IncrementRateLimit(c.Request().Context(), key, window); err != nil {
				log.Printf("Rate limit increment failed for %s: %v", key, err)
			}

			return next(c)
		}
	}
}
