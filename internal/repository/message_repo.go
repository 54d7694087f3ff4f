package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// MessageRepository persists chat messages, reactions and read receipts.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindByID(ctx context.Context, id uint) (models.Message, error)
	ListByChat(ctx context.Context, chatID uint, page, limit int) ([]models.Message, int64, error)
	UpdateContent(ctx context.Context, id uint, content string, at time.Time) error
	SoftDelete(ctx context.Context, id uint, at time.Time) error
	AddReaction(ctx context.Context, reaction *models.MessageReaction) (bool, error)
	RemoveReaction(ctx context.Context, messageID, userID uint, emoji string) (bool, error)
	MarkChatRead(ctx context.Context, chatID, userID uint, at time.Time) (int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func preloadMessageRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender").
		Preload("Reactions", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at ASC") }).
		Preload("ReadBy")
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return translate(r.db.WithContext(ctx).Create(message).Error, "")
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (models.Message, error) {
	var message models.Message
	if err := preloadMessageRelations(r.db.WithContext(ctx)).First(&message, id).Error; err != nil {
		return models.Message{}, translate(err, "message not found")
	}
	return message, nil
}

// ListByChat returns the page of messages counted back from the newest, in ascending creation order.
func (r *messageRepository) ListByChat(ctx context.Context, chatID uint, page, limit int) ([]models.Message, int64, error) {
	_, limit, offset := normalizePage(page, limit, 50)

	query := r.db.WithContext(ctx).Model(&models.Message{}).Where("chat_id = ?", chatID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "")
	}

	var messages []models.Message
	err := preloadMessageRelations(query).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, translate(err, "")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, total, nil
}

func (r *messageRepository) UpdateContent(ctx context.Context, id uint, content string, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"content":   content,
		"is_edited": true,
		"edited_at": at,
	})
}

// SoftDelete replaces the content with the deletion placeholder and drops attachment metadata.
func (r *messageRepository) SoftDelete(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"content":    models.DeletedMessagePlaceholder,
		"is_deleted": true,
		"deleted_at": at,
		"file_url":   "",
		"file_name":  "",
		"file_size":  0,
		"mime_type":  "",
	})
}

func (r *messageRepository) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translate(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "message not found")
	}
	return nil
}

// AddReaction inserts the reaction and reports whether a new row was created.
func (r *messageRepository) AddReaction(ctx context.Context, reaction *models.MessageReaction) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(reaction)
	if result.Error != nil {
		return false, translate(result.Error, "")
	}
	return result.RowsAffected > 0, nil
}

func (r *messageRepository) RemoveReaction(ctx context.Context, messageID, userID uint, emoji string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&models.MessageReaction{})
	if result.Error != nil {
		return false, translate(result.Error, "")
	}
	return result.RowsAffected > 0, nil
}

// MarkChatRead records receipts for every message in the chat not sent by userID and not yet read by them.
func (r *messageRepository) MarkChatRead(ctx context.Context, chatID, userID uint, at time.Time) (int64, error) {
	var marked int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		err := tx.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ?", chatID, userID).
			Where("NOT EXISTS (SELECT 1 FROM message_read_receipts r WHERE r.message_id = messages.id AND r.user_id = ?)", userID).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		receipts := make([]models.MessageReadReceipt, 0, len(ids))
		for _, id := range ids {
			receipts = append(receipts, models.MessageReadReceipt{MessageID: id, UserID: userID, ReadAt: at})
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&receipts, 200)
		if result.Error != nil {
			return result.Error
		}
		marked = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, translate(err, "")
	}
	return marked, nil
}
