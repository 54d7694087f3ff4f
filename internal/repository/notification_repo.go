package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// NotificationRepository handles persistence for notification entities.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id uint) (models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint, page, limit int, now time.Time) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uint, now time.Time) (int64, error)
	MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error)
	Delete(ctx context.Context, id, recipientID uint) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository constructs a repository backed by GORM.
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(notification).Error, "")
}

func (r *notificationRepository) FindByID(ctx context.Context, id uint) (models.Notification, error) {
	var notification models.Notification
	if err := r.db.WithContext(ctx).Preload("Sender").First(&notification, id).Error; err != nil {
		return models.Notification{}, translate(err, "notification not found")
	}
	return notification, nil
}

// ListByRecipient returns live notifications newest first; expired rows are hidden even before the sweeper runs.
func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, page, limit int, now time.Time) ([]models.Notification, int64, error) {
	_, limit, offset := normalizePage(page, limit, 20)

	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND expires_at > ?", recipientID, now)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "")
	}

	var notifications []models.Notification
	err := query.Preload("Sender").
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, translate(err, "")
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID uint, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ? AND expires_at > ?", recipientID, false, now).
		Count(&count).Error
	if err != nil {
		return 0, translate(err, "")
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID uint, at time.Time) (models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND recipient_id = ?", id, recipientID).First(&notification).Error; err != nil {
			return err
		}
		if notification.IsRead {
			return nil
		}
		notification.IsRead = true
		notification.ReadAt = &at
		return tx.Model(&notification).Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	})
	if err != nil {
		return models.Notification{}, translate(err, "notification not found")
	}
	return notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID uint, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		return 0, translate(result.Error, "")
	}
	return result.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, id, recipientID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Delete(&models.Notification{})
	if result.Error != nil {
		return translate(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "notification not found")
	}
	return nil
}

func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, translate(result.Error, "")
	}
	return result.RowsAffected, nil
}
