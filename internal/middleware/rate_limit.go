package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// RateLimit throttles a route per authenticated user, falling back to the
// client IP when the request carries no user. identifier namespaces the buckets
// so separate limits on the same user do not share a counter.
func RateLimit(identifier string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: func(c *fiber.Ctx) string { return rateLimitKey(identifier, c) },
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many requests", []string{identifier + " rate limit exceeded"})
		},
	})
}

func rateLimitKey(identifier string, c *fiber.Ctx) string {
	if userID, ok := c.Locals("user_id").(uint); ok && userID > 0 {
		return identifier + ":user:" + strconv.FormatUint(uint64(userID), 10)
	}
	return identifier + ":ip:" + c.IP()
}
