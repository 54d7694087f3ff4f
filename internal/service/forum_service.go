package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

// BulkNotifier exposes the subset of the notification dispatcher needed by forums.
type BulkNotifier interface {
	NotifyBulk(ctx context.Context, recipientIDs []uint, template dto.NotificationTemplate) (dto.BulkNotificationResponse, error)
}

// ForumService exposes forum thread use-cases and their live updates.
type ForumService interface {
	ListThreads(ctx context.Context, page, limit int) ([]dto.ForumThreadResponse, dto.PaginationMeta, error)
	GetThread(ctx context.Context, id uint, includePosts bool) (dto.ForumThreadResponse, error)
	ThreadExists(ctx context.Context, id uint) error
	CreateThread(ctx context.Context, authorID uint, role string, payload dto.ForumThreadCreateRequest) (dto.ForumThreadResponse, error)
	CreatePost(ctx context.Context, threadID, authorID uint, payload dto.ForumPostCreateRequest) (dto.ForumPostResponse, error)
}

type forumService struct {
	repo          repository.ForumRepository
	users         repository.UserRepository
	notifications BulkNotifier
	bus           realtime.Broadcaster
	validator     *validator.Validate
	logger        zerolog.Logger
	tracer        trace.Tracer
	sanitizer     textSanitizer
	now           func() time.Time
}

// NewForumService constructs a forum service.
func NewForumService(repo repository.ForumRepository, users repository.UserRepository, notifications BulkNotifier, bus realtime.Broadcaster, validate *validator.Validate, logger zerolog.Logger) ForumService {
	return &forumService{
		repo:          repo,
		users:         users,
		notifications: notifications,
		bus:           bus,
		validator:     validate,
		logger:        logger.With().Str("component", "forum_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/alumni-connect-api/internal/service/forum"),
		sanitizer:     newTextSanitizer(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *forumService) ListThreads(ctx context.Context, page, limit int) ([]dto.ForumThreadResponse, dto.PaginationMeta, error) {
	threads, total, err := s.repo.ListThreads(ctx, page, limit)
	if err != nil {
		return nil, dto.PaginationMeta{}, err
	}
	page, limit = pageWindow(page, limit, 20)
	return dto.NewForumThreadResponseSlice(threads), dto.NewPaginationMeta(page, limit, total), nil
}

func (s *forumService) GetThread(ctx context.Context, id uint, includePosts bool) (dto.ForumThreadResponse, error) {
	var (
		thread models.ForumThread
		err    error
	)
	if includePosts {
		thread, err = s.repo.GetThreadWithPosts(ctx, id)
	} else {
		thread, err = s.repo.GetThread(ctx, id)
	}
	if err != nil {
		return dto.ForumThreadResponse{}, err
	}
	return dto.NewForumThreadResponse(thread), nil
}

func (s *forumService) ThreadExists(ctx context.Context, id uint) error {
	_, err := s.repo.GetThread(ctx, id)
	return err
}

func (s *forumService) CreateThread(ctx context.Context, authorID uint, role string, payload dto.ForumThreadCreateRequest) (dto.ForumThreadResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ForumThreadResponse{}, validationError(err)
	}

	title := s.sanitizer.Clean(payload.Title)
	if title == "" {
		return dto.ForumThreadResponse{}, apperror.Validation("thread title empty after sanitization")
	}

	spanCtx, span := s.tracer.Start(ctx, "forum.create_thread", trace.WithAttributes(
		attribute.Int64("forum.author_id", int64(authorID)),
		attribute.String("forum.role", role),
	))
	defer span.End()

	thread := models.ForumThread{
		Title:    title,
		AuthorID: authorID,
		Metadata: datatypes.JSONMap{"created_by_role": normalizeRole(role)},
	}
	if err := s.repo.CreateThread(spanCtx, &thread); err != nil {
		span.RecordError(err)
		return dto.ForumThreadResponse{}, err
	}

	s.logger.Info().Uint("thread_id", thread.ID).Uint("author_id", authorID).Msg("forum thread created")
	return dto.NewForumThreadResponse(thread), nil
}

// CreatePost stores a reply, pushes forum_update to the thread channel and
// notifies the thread author and earlier posters.
func (s *forumService) CreatePost(ctx context.Context, threadID, authorID uint, payload dto.ForumPostCreateRequest) (dto.ForumPostResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ForumPostResponse{}, validationError(err)
	}

	content := s.sanitizer.Clean(payload.Content)
	if content == "" {
		return dto.ForumPostResponse{}, apperror.Validation("post content empty after sanitization")
	}

	thread, err := s.repo.GetThread(ctx, threadID)
	if err != nil {
		return dto.ForumPostResponse{}, err
	}

	posters, err := s.repo.ListPosterIDs(ctx, threadID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("thread_id", threadID).Msg("failed to list thread posters")
	}

	post := models.ForumPost{
		ThreadID:  threadID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreatePost(ctx, &post); err != nil {
		return dto.ForumPostResponse{}, err
	}

	response := dto.NewForumPostResponse(post)
	update := dto.ForumUpdateEvent{ForumID: threadID, Action: dto.ForumActionNewPost, Post: &response}
	if author, err := s.users.FindByID(ctx, authorID); err == nil {
		profile := dto.NewPublicUser(author)
		update.User = &profile
	}
	s.bus.Broadcast(ctx, realtime.ForumChannel(threadID), realtime.Event{Type: realtime.OutboundForumUpdate, Data: update}, realtime.BroadcastOptions{})

	s.dispatchNotifications(ctx, thread, post, posters)
	return response, nil
}

func (s *forumService) dispatchNotifications(ctx context.Context, thread models.ForumThread, post models.ForumPost, posters []uint) {
	if s.notifications == nil {
		return
	}

	recipients := dedupeIDs(append([]uint{thread.AuthorID}, posters...), post.AuthorID)
	if len(recipients) == 0 {
		return
	}

	senderID := post.AuthorID
	template := dto.NotificationTemplate{
		SenderID: &senderID,
		Type:     NotificationForumReply,
		Title:    "New forum reply",
		Message:  fmt.Sprintf("New reply in thread '%s'", thread.Title),
		Data:     map[string]interface{}{"thread_id": thread.ID, "post_id": post.ID},
	}
	if _, err := s.notifications.NotifyBulk(ctx, recipients, template); err != nil {
		s.logger.Warn().Err(err).Uint("thread_id", thread.ID).Msg("failed to notify forum participants")
	}
}
