package handler

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// AdminHandler exposes moderation endpoints: the activity log and bulk notifications.
type AdminHandler struct {
	activity      service.ActivityService
	notifications service.NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(activity service.ActivityService, notifications service.NotificationService, validator *validator.Validate, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		activity:      activity,
		notifications: notifications,
		validator:     validator,
		logger:        logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register attaches admin routes to the router group.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/activities", h.listActivity)
	router.Post("/notifications/bulk", h.bulkNotify)
}

func (h *AdminHandler) listActivity(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	actorID, err := parseQueryInt(c, "actor_id")
	if err != nil || actorID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid actor id")
	}
	entityID, err := parseQueryInt(c, "entity_id")
	if err != nil || entityID < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid entity id")
	}

	req := dto.ActivityListRequest{
		Page:          page,
		Limit:         limit,
		ActorID:       uint(actorID),
		Action:        strings.TrimSpace(c.Query("action")),
		EntityType:    strings.TrimSpace(c.Query("entity_type")),
		EntityID:      uint(entityID),
		CorrelationID: strings.TrimSpace(c.Query("correlation_id")),
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "since must be an RFC3339 timestamp")
		}
		req.Since = &since
	}

	response, err := h.activity.List(withRequestContext(c), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity logs")
	}
	return utils.OK(c, response.Items, "activity logs", response.Pagination)
}

func (h *AdminHandler) bulkNotify(c *fiber.Ctx) error {
	var payload dto.BulkNotificationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	result, err := h.notifications.NotifyBulk(withRequestContext(c), payload.RecipientIDs, payload.Template)
	if err != nil && result.Created == 0 && len(result.Failed) == 0 {
		return respondError(c, h.logger, err, "failed to send notifications")
	}
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Int("created", result.Created).Msg("bulk notification partially failed")
		return utils.SendSuccessWithStatus(c, fiber.StatusMultiStatus, "notifications partially sent", result)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notifications sent", result)
}
