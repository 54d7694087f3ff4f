package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/middleware"
)

func TestRateLimitIsPerUser(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if id := c.Get("X-Test-User"); id == "1" {
			c.Locals("user_id", uint(1))
		} else {
			c.Locals("user_id", uint(2))
		}
		return c.Next()
	})
	app.Post("/messages", middleware.RateLimit("messages", 2, time.Minute), noContent)

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/messages", nil)
		req.Header.Set("X-Test-User", user)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusNoContent, send("1"))
	require.Equal(t, fiber.StatusNoContent, send("1"))
	require.Equal(t, fiber.StatusTooManyRequests, send("1"))
	require.Equal(t, fiber.StatusNoContent, send("2"))
}
