package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// ActivityLogFilter narrows the audit trail. Zero values are ignored.
type ActivityLogFilter struct {
	Page          int
	Limit         int
	ActorID       *uint
	Action        string
	EntityType    string
	EntityID      *uint
	CorrelationID string
	Since         *time.Time
}

// ActivityLogRepository stores the audit trail written by the relay.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error)
}

type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository returns a gorm backed ActivityLogRepository.
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return translate(r.db.WithContext(ctx).Create(entry).Error, "")
}

func (r *activityLogRepository) List(ctx context.Context, filter ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	scoped := r.db.WithContext(ctx).Model(&models.ActivityLog{}).Scopes(activityFilterScope(filter))

	var total int64
	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "")
	}
	if total == 0 {
		return []models.ActivityLog{}, 0, nil
	}

	_, limit, offset := normalizePage(filter.Page, filter.Limit, 20)

	var entries []models.ActivityLog
	err := scoped.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, 0, translate(err, "")
	}
	return entries, total, nil
}

func activityFilterScope(filter ActivityLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.ActorID != nil {
			db = db.Where("actor_id = ?", *filter.ActorID)
		}
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != nil {
			db = db.Where("entity_id = ?", *filter.EntityID)
		}
		if filter.CorrelationID != "" {
			db = db.Where("correlation_id = ?", filter.CorrelationID)
		}
		if filter.Since != nil {
			db = db.Where("created_at >= ?", filter.Since.UTC())
		}
		return db
	}
}
