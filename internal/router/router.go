package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/alumni-connect-api/internal/config"
	"github.com/noah-isme/alumni-connect-api/internal/handler"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	SocketHandler       *handler.SocketHandler
	ChatHandler         *handler.ChatHandler
	NotificationHandler *handler.NotificationHandler
	ForumHandler        *handler.ForumHandler
	PresenceHandler     *handler.PresenceHandler
	AdminHandler        *handler.AdminHandler
	JWTMiddleware       fiber.Handler

	Bus      handler.BusStatus
	Presence handler.OnlineCounter
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Bus, deps.Presence))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	v2 := app.Group("/api/v2")

	// The socket handshake authenticates itself after the upgrade.
	if deps.SocketHandler != nil {
		deps.SocketHandler.Register(v2)
	}

	if deps.ChatHandler != nil {
		deps.ChatHandler.Register(v2.Group("/chats", jwtMiddleware))
	}

	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(v2.Group("/notifications", jwtMiddleware))
	}

	if deps.ForumHandler != nil {
		deps.ForumHandler.Register(v2.Group("/forums", jwtMiddleware))
	}

	if deps.PresenceHandler != nil {
		deps.PresenceHandler.Register(v2.Group("/presence", jwtMiddleware))
	}

	if deps.AdminHandler != nil {
		deps.AdminHandler.Register(v2.Group("/admin", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin, middleware.AuthRoleModerator)))
	}
}
