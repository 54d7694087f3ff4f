package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

const (
	defaultNotificationTTL = 30 * 24 * time.Hour
	defaultSweepInterval   = 10 * time.Minute
	defaultUnreadCacheTTL  = 5 * time.Minute
	defaultPriority        = "medium"
)

// NotificationOptions tunes expiry and caching.
type NotificationOptions struct {
	TTL            time.Duration
	SweepInterval  time.Duration
	CachePrefix    string
	UnreadCacheTTL time.Duration
}

// NotificationService persists notifications and pushes them to recipients' personal channels.
type NotificationService interface {
	Notify(ctx context.Context, req dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	NotifyBulk(ctx context.Context, recipientIDs []uint, template dto.NotificationTemplate) (dto.BulkNotificationResponse, error)
	List(ctx context.Context, userID uint, page, limit int) (dto.NotificationListResponse, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, id, userID uint) error
	Start(ctx context.Context)
}

type notificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	bus       realtime.Broadcaster
	redis     *redis.Client
	validator *validator.Validate
	sanitizer textSanitizer
	options   NotificationOptions
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewNotificationService constructs the notification dispatcher. redisClient may be nil.
func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	bus realtime.Broadcaster,
	redisClient *redis.Client,
	validate *validator.Validate,
	options NotificationOptions,
	logger zerolog.Logger,
) NotificationService {
	if options.TTL <= 0 {
		options.TTL = defaultNotificationTTL
	}
	if options.SweepInterval <= 0 {
		options.SweepInterval = defaultSweepInterval
	}
	if options.UnreadCacheTTL <= 0 {
		options.UnreadCacheTTL = defaultUnreadCacheTTL
	}
	if strings.TrimSpace(options.CachePrefix) == "" {
		options.CachePrefix = "alumni"
	}

	return &notificationService{
		repo:      repo,
		users:     users,
		bus:       bus,
		redis:     redisClient,
		validator: validate,
		sanitizer: newTextSanitizer(),
		options:   options,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/alumni-connect-api/internal/service/notification"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify persists a notification and pushes it to the recipient's personal
// channel. The push is absorbed when the recipient has no live connection.
func (s *notificationService) Notify(ctx context.Context, req dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NotificationResponse{}, validationError(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.notify", trace.WithAttributes(
		attribute.Int64("notification.recipient_id", int64(req.RecipientID)),
		attribute.String("notification.type", req.Type),
	))
	defer span.End()

	draft, err := s.prepare(spanCtx, req.NotificationTemplate)
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}

	response, err := s.deliver(spanCtx, draft, req.RecipientID)
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}
	return response, nil
}

// NotifyBulk writes one notification per recipient. A failure for one
// recipient is logged and collected; the loop always continues.
func (s *notificationService) NotifyBulk(ctx context.Context, recipientIDs []uint, template dto.NotificationTemplate) (dto.BulkNotificationResponse, error) {
	recipients := dedupeIDs(recipientIDs, 0)
	if len(recipients) == 0 {
		return dto.BulkNotificationResponse{}, apperror.Validation("recipients are required")
	}
	if err := s.validator.Struct(template); err != nil {
		return dto.BulkNotificationResponse{}, validationError(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "notifications.notify_bulk", trace.WithAttributes(
		attribute.Int("notification.recipients", len(recipients)),
		attribute.String("notification.type", template.Type),
	))
	defer span.End()

	draft, err := s.prepare(spanCtx, template)
	if err != nil {
		span.RecordError(err)
		return dto.BulkNotificationResponse{}, err
	}

	result := dto.BulkNotificationResponse{Items: make([]dto.NotificationResponse, 0, len(recipients))}
	var failures []error
	for _, recipientID := range recipients {
		response, err := s.deliver(spanCtx, draft, recipientID)
		if err != nil {
			s.logger.Warn().Err(err).Uint("recipient_id", recipientID).Str("type", template.Type).Msg("bulk notification failed for recipient")
			result.Failed = append(result.Failed, recipientID)
			failures = append(failures, fmt.Errorf("recipient %d: %w", recipientID, err))
			continue
		}
		result.Items = append(result.Items, response)
	}
	result.Created = len(result.Items)

	return result, errors.Join(failures...)
}

// prepare validates and sanitises a template into a notification without a recipient.
func (s *notificationService) prepare(ctx context.Context, template dto.NotificationTemplate) (models.Notification, error) {
	if err := validateNotificationData(template.Type, template.Data); err != nil {
		return models.Notification{}, apperror.Validation(fmt.Sprintf("invalid data for %s notification", template.Type), err.Error())
	}

	title := s.sanitizer.Clean(template.Title)
	message := s.sanitizer.Clean(template.Message)
	if title == "" || message == "" {
		return models.Notification{}, apperror.Validation("title and message are required")
	}

	now := s.now()
	expiresAt := now.Add(s.options.TTL)
	if template.ExpiresAt != nil {
		if !template.ExpiresAt.After(now) {
			return models.Notification{}, apperror.Validation("expires_at must be in the future")
		}
		expiresAt = template.ExpiresAt.UTC()
	}

	priority := template.Priority
	if priority == "" {
		priority = defaultPriority
	}

	draft := models.Notification{
		SenderID:  template.SenderID,
		Type:      template.Type,
		Title:     title,
		Message:   message,
		Data:      s.sanitizeData(template.Data),
		Priority:  priority,
		ActionURL: ActionURLFor(template.Type, template.SenderID, template.Data),
		ExpiresAt: expiresAt,
	}

	if template.SenderID != nil {
		sender, err := s.users.FindByID(ctx, *template.SenderID)
		if err != nil {
			return models.Notification{}, err
		}
		draft.Sender = &sender
	}
	return draft, nil
}

func (s *notificationService) deliver(ctx context.Context, draft models.Notification, recipientID uint) (dto.NotificationResponse, error) {
	model := draft
	model.RecipientID = recipientID
	model.Data = cloneJSONMap(draft.Data)
	sender := draft.Sender
	// The sender is attached after the insert so GORM does not try to upsert it.
	model.Sender = nil

	if err := s.repo.Create(ctx, &model); err != nil {
		return dto.NotificationResponse{}, err
	}
	model.Sender = sender

	response := dto.NewNotificationResponse(model)
	s.invalidateUnread(ctx, recipientID)
	observability.NotificationsPublished().WithLabelValues(model.Type).Inc()
	s.push(ctx, realtime.PersonalChannel(recipientID), realtime.Event{Type: realtime.OutboundNewNotification, Data: response})
	return response, nil
}

// push never lets a broadcast failure escape into persistence flows.
func (s *notificationService) push(ctx context.Context, channel string, event realtime.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("channel", channel).Str("event", string(event.Type)).Msg("notification push failed")
		}
	}()
	s.bus.Broadcast(ctx, channel, event, realtime.BroadcastOptions{})
}

func (s *notificationService) sanitizeData(data map[string]interface{}) datatypes.JSONMap {
	out := datatypes.JSONMap{}
	for key, value := range data {
		if str, ok := value.(string); ok {
			out[key] = s.sanitizer.Clean(str)
			continue
		}
		out[key] = value
	}
	return out
}

func cloneJSONMap(in datatypes.JSONMap) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func (s *notificationService) List(ctx context.Context, userID uint, page, limit int) (dto.NotificationListResponse, error) {
	items, total, err := s.repo.ListByRecipient(ctx, userID, page, limit, s.now())
	if err != nil {
		return dto.NotificationListResponse{}, err
	}
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return dto.NotificationListResponse{}, err
	}

	page, limit = pageWindow(page, limit, 20)
	return dto.NotificationListResponse{
		Items:       dto.NewNotificationResponseSlice(items),
		Pagination:  dto.NewPaginationMeta(page, limit, total),
		UnreadCount: unread,
	}, nil
}

// UnreadCount is served from Redis when available and recomputed on a miss.
func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	key := s.unreadKey(userID)
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			if count, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return count, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read unread count cache")
		}
	}

	count, err := s.repo.CountUnread(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, count, s.options.UnreadCacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to cache unread count")
		}
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "notifications.mark_read", trace.WithAttributes(
		attribute.Int64("notification.id", int64(id)),
		attribute.Int64("notification.user_id", int64(userID)),
	))
	defer span.End()

	notification, err := s.repo.MarkRead(spanCtx, id, userID, s.now())
	if err != nil {
		span.RecordError(err)
		return dto.NotificationResponse{}, err
	}
	s.invalidateUnread(spanCtx, userID)

	readAt := s.now()
	if notification.ReadAt != nil {
		readAt = *notification.ReadAt
	}
	s.push(spanCtx, realtime.PersonalChannel(userID), realtime.Event{
		Type: realtime.OutboundNotificationRead,
		Data: dto.NotificationReadEvent{ID: notification.ID, ReadAt: readAt},
	})
	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	s.invalidateUnread(ctx, userID)
	return updated, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID uint) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

// Start runs the expiry sweeper until ctx is cancelled.
func (s *notificationService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.options.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *notificationService) sweep(ctx context.Context) {
	removed, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to sweep expired notifications")
		return
	}
	if removed > 0 {
		s.logger.Info().Int64("removed", removed).Msg("expired notifications swept")
	}
}

func (s *notificationService) unreadKey(userID uint) string {
	return fmt.Sprintf("%s:notifications:unread:%d", s.options.CachePrefix, userID)
}

func (s *notificationService) invalidateUnread(ctx context.Context, userID uint) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.unreadKey(userID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to invalidate unread count cache")
	}
}

// ActionURLFor derives the client route a notification links to. It is pure
// so the stored URL always matches what clients receive.
func ActionURLFor(notificationType string, senderID *uint, data map[string]interface{}) string {
	switch notificationType {
	case NotificationConnectionRequest, NotificationConnectionAccepted:
		if senderID != nil && *senderID > 0 {
			return fmt.Sprintf("/alumni/%d", *senderID)
		}
		return routeWithID("/alumni", dataID(data, "sender_id"))
	case NotificationEventReminder, NotificationEventUpdate:
		return routeWithID("/events", dataID(data, "event_id"))
	case NotificationJobStatusUpdate, NotificationJobPosted:
		return routeWithID("/jobs", dataID(data, "job_id"))
	case NotificationMessage:
		return routeWithID("/messages", dataID(data, "chat_id"))
	case NotificationForumReply:
		return routeWithID("/forums", dataID(data, "thread_id"))
	case NotificationSurveyInvite:
		return routeWithID("/surveys", dataID(data, "survey_id"))
	default:
		return "/notifications"
	}
}

func routeWithID(base, id string) string {
	if id == "" {
		return base
	}
	return base + "/" + id
}

// dataID reads an identifier stored under key or its camelCase form.
func dataID(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	value, ok := data[key]
	if !ok {
		value, ok = data[camelKey(key)]
	}
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func camelKey(key string) string {
	parts := strings.Split(key, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
