package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/service"
	"github.com/noah-isme/alumni-connect-api/internal/utils"
)

// ForumHandler exposes forum thread endpoints.
type ForumHandler struct {
	service   service.ForumService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewForumHandler constructs a forum handler.
func NewForumHandler(service service.ForumService, validator *validator.Validate, logger zerolog.Logger) *ForumHandler {
	return &ForumHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "forum_handler").Logger(),
	}
}

// Register binds forum routes.
func (h *ForumHandler) Register(router fiber.Router) {
	router.Get("/threads", h.listThreads)
	router.Post("/threads", middleware.WithAuth(h.createThread, middleware.AuthOptions{Role: middleware.AuthRoleAlumni}))
	router.Get("/threads/:id", h.getThread)
	router.Post("/threads/:id/posts", middleware.WithAuth(h.createPost, middleware.AuthOptions{Role: middleware.AuthRoleAlumni}))
}

func (h *ForumHandler) listThreads(c *fiber.Ctx) error {
	var query dto.ListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination")
	}
	if err := h.validator.Struct(query); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid pagination", validationDetails(err))
	}

	threads, meta, err := h.service.ListThreads(withRequestContext(c), query.Page, query.Limit)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list threads")
	}
	return utils.OK(c, threads, "forum threads", meta)
}

func (h *ForumHandler) getThread(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid thread id")
	}

	thread, err := h.service.GetThread(withRequestContext(c), id, c.QueryBool("include_posts", false))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load thread")
	}
	return utils.SendSuccess(c, "forum thread", thread)
}

func (h *ForumHandler) createThread(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.ForumThreadCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	thread, err := h.service.CreateThread(withRequestContext(c), userID, userRoleFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create thread")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "forum thread created", thread)
}

func (h *ForumHandler) createPost(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	threadID, err := parseIDParam(c, "id")
	if err != nil {
		return respondError(c, h.logger, err, "invalid thread id")
	}

	var payload dto.ForumPostCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}
	if err := h.validator.Struct(payload); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", validationDetails(err))
	}

	post, err := h.service.CreatePost(withRequestContext(c), threadID, userID, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create post")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "forum post created", post)
}
