package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

// Activity actions recorded by the relay.
const (
	ActivityActionDirectMessage = "direct_message_sent"
	ActivityEntityChat          = "chat"
)

// ActivityEntry captures the details required to persist an activity record.
// CorrelationID defaults to the one carried by the Record context.
type ActivityEntry struct {
	ActorID       uint
	ActorRole     string
	Action        string
	EntityType    string
	EntityID      *uint
	CorrelationID string
	Metadata      map[string]interface{}
}

// ActivityRecorder defines behaviour for recording activity logs.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
	// RecordAsync persists entry in the background; failures are logged only.
	RecordAsync(entry ActivityEntry)
}

// ActivityService exposes methods to query and persist activity logs.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
	// Wait blocks until background writes have finished.
	Wait()
}

type activityService struct {
	repo    repository.ActivityLogRepository
	logger  zerolog.Logger
	timeout time.Duration
	pending sync.WaitGroup
}

// NewActivityService constructs the activity log service.
func NewActivityService(repo repository.ActivityLogRepository, timeout time.Duration, logger zerolog.Logger) ActivityService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &activityService{
		repo:    repo,
		timeout: timeout,
		logger:  logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, apperror.Validation("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, apperror.Validation("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}
	model.CorrelationID = strings.TrimSpace(entry.CorrelationID)
	if model.CorrelationID == "" {
		model.CorrelationID = middleware.CorrelationIDFromContext(ctx)
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Str("action", model.Action).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) RecordAsync(entry ActivityEntry) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.Record(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Uint("actor_id", entry.ActorID).Str("action", entry.Action).Msg("background activity write failed")
		}
	}()
}

func (s *activityService) Wait() {
	s.pending.Wait()
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:          req.Page,
		Limit:         req.Limit,
		Action:        strings.ToLower(strings.TrimSpace(req.Action)),
		EntityType:    strings.ToLower(strings.TrimSpace(req.EntityType)),
		CorrelationID: strings.TrimSpace(req.CorrelationID),
		Since:         req.Since,
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if req.EntityID > 0 {
		filter.EntityID = &req.EntityID
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	responses := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewActivityResponse(entry))
	}

	page, limit := pageWindow(req.Page, req.Limit, 20)
	return dto.ActivityListResponse{Items: responses, Pagination: dto.NewPaginationMeta(page, limit, total)}, nil
}

func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		lower := strings.ToLower(key)
		if email, ok := value.(string); ok && strings.Contains(lower, "email") {
			sanitized[key] = maskEmail(email)
			continue
		}
		if strings.Contains(lower, "email") || strings.Contains(lower, "token") || strings.Contains(lower, "password") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

// maskEmail keeps the first and last character of the local part and the domain.
func maskEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}

func normalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if r == "" {
		return "system"
	}
	return r
}

// pageWindow mirrors the repository defaults so pagination metadata matches the query.
func pageWindow(page, limit, defaultLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit
}
