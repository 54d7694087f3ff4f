package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// ChatListFilter narrows the chats listed for a user.
type ChatListFilter struct {
	Page            int
	Limit           int
	IncludeArchived bool
}

// ChatRepository persists chats and their participants.
type ChatRepository interface {
	FindByID(ctx context.Context, id uint) (models.Chat, error)
	FindDirectByKey(ctx context.Context, key string) (models.Chat, error)
	Create(ctx context.Context, chat *models.Chat) error
	ListForUser(ctx context.Context, userID uint, filter ChatListFilter) ([]models.Chat, int64, error)
	UpdateSummary(ctx context.Context, chatID, messageID uint, at time.Time) (bool, error)
	AddParticipants(ctx context.Context, chatID uint, participants []models.ChatParticipant) error
	RemoveParticipant(ctx context.Context, chatID, userID uint, at time.Time) error
	TouchParticipant(ctx context.Context, chatID, userID uint, at time.Time) error
	SetArchived(ctx context.Context, chatID uint, archived bool) error
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository constructs a chat repository backed by GORM.
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Participants", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("joined_at ASC")
	}).Preload("Participants.User")
}

func (r *chatRepository) FindByID(ctx context.Context, id uint) (models.Chat, error) {
	var chat models.Chat
	if err := preloadParticipants(r.db.WithContext(ctx)).First(&chat, id).Error; err != nil {
		return models.Chat{}, translate(err, "chat not found")
	}
	return chat, nil
}

func (r *chatRepository) FindDirectByKey(ctx context.Context, key string) (models.Chat, error) {
	var chat models.Chat
	err := preloadParticipants(r.db.WithContext(ctx)).
		Where("type = ? AND direct_key = ?", models.ChatTypeDirect, key).
		First(&chat).Error
	if err != nil {
		return models.Chat{}, translate(err, "chat not found")
	}
	return chat, nil
}

// Create inserts the chat and its participants in one transaction.
func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(chat).Error
	}), "")
}

func (r *chatRepository) ListForUser(ctx context.Context, userID uint, filter ChatListFilter) ([]models.Chat, int64, error) {
	_, limit, offset := normalizePage(filter.Page, filter.Limit, 20)

	query := r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Joins("JOIN chat_participants ON chat_participants.chat_id = chats.id").
		Where("chat_participants.user_id = ? AND chat_participants.left_at IS NULL", userID)
	if !filter.IncludeArchived {
		query = query.Where("chats.is_archived = ?", false)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "")
	}

	var chats []models.Chat
	err := preloadParticipants(query).
		Select("chats.*").
		Order("chats.is_pinned DESC").
		Order("COALESCE(chats.last_activity_at, chats.created_at) DESC").
		Order("chats.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&chats).Error
	if err != nil {
		return nil, 0, translate(err, "")
	}
	return chats, total, nil
}

// UpdateSummary advances the chat's last message pointer unless a newer message already holds it.
func (r *chatRepository) UpdateSummary(ctx context.Context, chatID, messageID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", chatID).
		Where("last_activity_at IS NULL OR last_activity_at <= ?", at).
		Updates(map[string]interface{}{
			"last_message_id":  messageID,
			"last_activity_at": at,
		})
	if result.Error != nil {
		return false, translate(result.Error, "")
	}
	return result.RowsAffected > 0, nil
}

// AddParticipants inserts participants, reactivating any who previously left.
func (r *chatRepository) AddParticipants(ctx context.Context, chatID uint, participants []models.ChatParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	for i := range participants {
		participants[i].ChatID = chatID
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "joined_at", "left_at"}),
	}).Create(&participants).Error
	return translate(err, "")
}

func (r *chatRepository) RemoveParticipant(ctx context.Context, chatID, userID uint, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ? AND left_at IS NULL", chatID, userID).
		Update("left_at", at)
	if result.Error != nil {
		return translate(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "participant not found")
	}
	return nil
}

func (r *chatRepository) TouchParticipant(ctx context.Context, chatID, userID uint, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("last_seen_at", at).Error
	return translate(err, "")
}

func (r *chatRepository) SetArchived(ctx context.Context, chatID uint, archived bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("is_archived", archived)
	if result.Error != nil {
		return translate(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "chat not found")
	}
	return nil
}
