package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
	"github.com/noah-isme/alumni-connect-api/internal/service"
)

// CloseUnauthorized is the close code sent when the handshake token is rejected.
const CloseUnauthorized = 4401

// SocketHandler upgrades requests and hands authenticated connections to the gateway.
type SocketHandler struct {
	gateway service.GatewayService
	logger  zerolog.Logger
}

// NewSocketHandler creates a socket handler instance.
func NewSocketHandler(gateway service.GatewayService, logger zerolog.Logger) *SocketHandler {
	return &SocketHandler{
		gateway: gateway,
		logger:  logger.With().Str("component", "socket_handler").Logger(),
	}
}

// Register binds the websocket endpoint under the provided router group.
func (h *SocketHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		c.Locals("socket_token", middleware.TokenFromRequest(c))
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *SocketHandler) handleConnection(conn *websocket.Conn) {
	token, _ := conn.Locals("socket_token").(string)
	correlation, _ := conn.Locals("correlation_id").(string)
	ctx := middleware.ContextWithCorrelation(context.Background(), correlation)

	user, err := h.gateway.Authenticate(ctx, token)
	if err != nil {
		observability.SocketConnections().WithLabelValues("rejected").Inc()
		h.logger.Debug().Err(err).Str("correlation_id", correlation).Msg("socket handshake rejected")
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(CloseUnauthorized, err.Error()))
		_ = conn.Close()
		return
	}

	h.gateway.Serve(ctx, conn, user)
}
