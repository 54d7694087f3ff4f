package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// NotificationHandler manages the notification inbox and its event stream.
type NotificationHandler struct {
	service   service.NotificationService
	gateway   service.GatewayService
	validator *validator.Validate
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewNotificationHandler constructs a handler instance.
func NewNotificationHandler(service service.NotificationService, gateway service.GatewayService, validator *validator.Validate, keepAlive time.Duration, logger zerolog.Logger) *NotificationHandler {
	if keepAlive <= 0 {
		keepAlive = 25 * time.Second
	}
	return &NotificationHandler{
		service:   service,
		gateway:   gateway,
		validator: validator,
		keepAlive: keepAlive,
		logger:    logger.With().Str("component", "notification_handler").Logger(),
	}
}

// Register binds the notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Get("/unread-count", h.unreadCount)
	router.Get("/stream", h.stream)
	router.Patch("/read-all", h.markAllRead)
	router.Patch("/:id/read", h.markRead)
	router.Delete("/:id", h.delete)
}

func (h *NotificationHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var query dto.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination")
	}
	if err := h.validator.Struct(query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid pagination", validationDetails(err))
	}

	result, err := h.service.List(withRequestContext(c), userID, query.Page, query.Limit)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list notifications")
	}
	return utils.SendSuccess(c, "notifications", result)
}

func (h *NotificationHandler) unreadCount(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	count, err := h.service.UnreadCount(withRequestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to count notifications")
	}
	return utils.SendSuccess(c, "unread notifications", dto.UnreadCountResponse{Count: count})
}

func (h *NotificationHandler) stream(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	client, cleanup := h.gateway.Subscribe(userID)
	logger := requestLogger(h.logger, c).With().Uint("user_id", userID).Logger()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cleanup()

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		if err := writeStreamEvent(w, realtime.Event{Type: realtime.OutboundConnected, Data: fiber.Map{"client_id": client.ID}}); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-client.Events():
				if !ok {
					return
				}
				if err := writeStreamEvent(w, event); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					logger.Debug().Err(err).Msg("notification stream closed")
					return
				}
			case <-client.Done():
				return
			}
		}
	})

	return nil
}

func (h *NotificationHandler) markRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid notification id")
	}

	notification, err := h.service.MarkRead(withRequestContext(c), id, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notification")
	}
	return utils.SendSuccess(c, "notification updated", notification)
}

func (h *NotificationHandler) markAllRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	updated, err := h.service.MarkAllRead(withRequestContext(c), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update notifications")
	}
	return utils.SendSuccess(c, "notifications updated", fiber.Map{"updated": updated})
}

func (h *NotificationHandler) delete(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid notification id")
	}

	if err := h.service.Delete(withRequestContext(c), id, userID); err != nil {
		return respondError(c, h.logger, err, "failed to delete notification")
	}
	return utils.SendSuccess(c, "notification deleted", nil)
}

func writeStreamEvent(w *bufio.Writer, event realtime.Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
