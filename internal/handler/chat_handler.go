package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// ChatHandler exposes chat and message endpoints.
type ChatHandler struct {
	service     service.ChatService
	validator   *validator.Validate
	logger      zerolog.Logger
	sendLimiter fiber.Handler
}

// NewChatHandler creates a chat handler instance. sendLimiter may be nil.
func NewChatHandler(service service.ChatService, validator *validator.Validate, sendLimiter fiber.Handler, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service:     service,
		validator:   validator,
		sendLimiter: sendLimiter,
		logger:      logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register binds chat routes under the provided router group.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)

	router.Patch("/messages/:id", h.editMessage)
	router.Delete("/messages/:id", h.deleteMessage)
	router.Post("/messages/:id/reactions", h.react)

	router.Get("/:id", h.get)
	router.Get("/:id/messages", h.messages)
	if h.sendLimiter != nil {
		router.Post("/:id/messages", h.sendLimiter, h.send)
	} else {
		router.Post("/:id/messages", h.send)
	}
	router.Put("/:id/read", h.markRead)
	router.Post("/:id/participants", h.addParticipants)
	router.Delete("/:id/participants/:userId", h.removeParticipant)
	router.Patch("/:id/archive", h.archive)
}

func (h *ChatHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.CreateChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	ctx := withRequestContext(c)
	switch payload.Type {
	case "direct":
		chat, created, err := h.service.CreateDirectChat(ctx, userID, payload.ParticipantID)
		if err != nil {
			return respondError(c, h.logger, err, "failed to create chat")
		}
		if !created {
			return utils.SendSuccess(c, "chat already exists", chat)
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "chat created", chat)
	case "group":
		chat, err := h.service.CreateGroupChat(ctx, userID, payload.Name, payload.ParticipantIDs, dto.GroupChatOptions{
			Description: payload.Description,
			IsPrivate:   payload.IsPrivate,
		})
		if err != nil {
			return respondError(c, h.logger, err, "failed to create chat")
		}
		return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "chat created", chat)
	default:
		return utils.SendError(c, fiber.StatusBadRequest, "unsupported chat type")
	}
}

func (h *ChatHandler) list(c *fiber.Ctx) error {
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

	result, err := h.service.ListChats(withRequestContext(c), userID, service.ChatListOptions{
		Page:            query.Page,
		Limit:           query.Limit,
		IncludeArchived: c.QueryBool("archived", false),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list chats")
	}
	return utils.OK(c, result.Items, "chats", result.Pagination)
}

func (h *ChatHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	chat, err := h.service.GetChat(withRequestContext(c), chatID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load chat")
	}
	return utils.SendSuccess(c, "chat", chat)
}

func (h *ChatHandler) messages(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	var query dto.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination")
	}
	if err := h.validator.Struct(query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid pagination", validationDetails(err))
	}

	result, err := h.service.GetMessages(withRequestContext(c), chatID, userID, query.Page, query.Limit)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load messages")
	}
	return utils.OK(c, result.Items, "messages", result.Pagination)
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	var payload dto.SendMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	message, err := h.service.SendMessage(withRequestContext(c), chatID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to send message")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

func (h *ChatHandler) editMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid message id")
	}

	var payload dto.EditMessageRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	message, err := h.service.EditMessage(withRequestContext(c), messageID, userID, payload.Content)
	if err != nil {
		return respondError(c, h.logger, err, "failed to edit message")
	}
	return utils.SendSuccess(c, "message updated", message)
}

func (h *ChatHandler) deleteMessage(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid message id")
	}

	event, err := h.service.SoftDeleteMessage(withRequestContext(c), messageID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to delete message")
	}
	return utils.SendSuccess(c, "message deleted", event)
}

func (h *ChatHandler) react(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	messageID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid message id")
	}

	var payload dto.ReactionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	ctx := withRequestContext(c)
	var result dto.ReactionResult
	if c.QueryBool("toggle", false) {
		result, err = h.service.ToggleReaction(ctx, messageID, userID, payload.Emoji)
	} else {
		result, err = h.service.AddReaction(ctx, messageID, userID, payload.Emoji)
	}
	if err != nil {
		return respondError(c, h.logger, err, "failed to react to message")
	}
	return utils.SendSuccess(c, "reaction updated", result)
}

func (h *ChatHandler) markRead(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	result, err := h.service.MarkRead(withRequestContext(c), chatID, userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to mark chat read")
	}
	return utils.SendSuccess(c, "chat marked read", result)
}

func (h *ChatHandler) addParticipants(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	var payload dto.AddParticipantsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	chat, err := h.service.AddParticipants(withRequestContext(c), chatID, userID, payload.UserIDs)
	if err != nil {
		return respondError(c, h.logger, err, "failed to add participants")
	}
	return utils.SendSuccess(c, "participants added", chat)
}

func (h *ChatHandler) removeParticipant(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}
	targetID, err := parseIDParam(c, "userId")
	if err != nil {
		return respondError(c, h.logger, err, "invalid user id")
	}

	chat, err := h.service.RemoveParticipant(withRequestContext(c), chatID, userID, targetID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to remove participant")
	}
	return utils.SendSuccess(c, "participant removed", chat)
}

func (h *ChatHandler) archive(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	chatID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid chat id")
	}

	var payload dto.ArchiveChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	chat, err := h.service.SetArchived(withRequestContext(c), chatID, userID, payload.Archived)
	if err != nil {
		return respondError(c, h.logger, err, "failed to archive chat")
	}
	return utils.SendSuccess(c, "chat updated", chat)
}
