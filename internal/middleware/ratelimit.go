package middleware

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/roamly/backend/internal/cache"
	"github.com/roamly/backend/internal/respond"
)

// ViewRateLimit throttles view recording per user (falling back to the
// client IP for the keying of unauthenticated probes, which auth will
// reject downstream anyway).
func ViewRateLimit(limiter *cache.RateLimiter, r *respond.Responder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, ok := c.Locals("user_id").(string)
		if !ok || key == "" {
			key = c.IP()
		}
		allowed, retryAfter := limiter.Allow(key, time.Now())
		if !allowed {
			secs := int(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			return r.RateLimited(c, secs)
		}
		return c.Next()
	}
}
