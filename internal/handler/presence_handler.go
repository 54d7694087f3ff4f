package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// PresenceHandler reports whether a user currently holds a live connection.
type PresenceHandler struct {
	gateway service.GatewayService
	logger  zerolog.Logger
}

// NewPresenceHandler constructs a presence handler.
func NewPresenceHandler(gateway service.GatewayService, logger zerolog.Logger) *PresenceHandler {
	return &PresenceHandler{
		gateway: gateway,
		logger:  logger.With().Str("component", "presence_handler").Logger(),
	}
}

// Register binds presence routes.
func (h *PresenceHandler) Register(router fiber.Router) {
	router.Get("/:userId", h.get)
}

func (h *PresenceHandler) get(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err, "invalid user id")
	}

	presence, err := h.gateway.Presence(withRequestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load presence")
	}
	return utils.SendSuccess(c, "presence", presence)
}
