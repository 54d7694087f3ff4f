package models

import (
	"fmt"
	"time"
)

// Chat types.
const (
	ChatTypeDirect = "direct"
	ChatTypeGroup  = "group"
)

// Participant roles.
const (
	ParticipantRoleMember = "member"
	ParticipantRoleAdmin  = "admin"
)

// Message types.
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeAudio  = "audio"
	MessageTypeVideo  = "video"
	MessageTypeSystem = "system"
)

// DeletedMessagePlaceholder replaces the content of soft-deleted messages.
const DeletedMessagePlaceholder = "This message was deleted"

// Chat is a direct (two participants) or group conversation.
type Chat struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	Type           string            `gorm:"size:16;not null;index" json:"type"`
	Name           string            `gorm:"size:255" json:"name"`
	Description    string            `gorm:"type:text" json:"description"`
	DirectKey      *string           `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedBy      uint              `gorm:"not null" json:"created_by"`
	LastMessageID  *uint             `json:"last_message_id"`
	LastActivityAt *time.Time        `gorm:"index" json:"last_activity_at"`
	IsArchived     bool              `gorm:"not null;default:false" json:"is_archived"`
	IsPinned       bool              `gorm:"not null;default:false" json:"is_pinned"`
	IsPrivate      bool              `gorm:"not null;default:false" json:"is_private"`
	Participants   []ChatParticipant `gorm:"foreignKey:ChatID" json:"participants,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// IsDirect reports whether the chat is a one-to-one conversation.
func (c Chat) IsDirect() bool {
	return c.Type == ChatTypeDirect
}

// ActiveParticipant returns the participant entry for userID when they have not left the chat.
func (c Chat) ActiveParticipant(userID uint) (ChatParticipant, bool) {
	for _, participant := range c.Participants {
		if participant.UserID == userID && participant.LeftAt == nil {
			return participant, true
		}
	}
	return ChatParticipant{}, false
}

// DirectChatKey builds the order-independent uniqueness key for a direct chat between two users.
func DirectChatKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// ChatParticipant links a user to a chat.
type ChatParticipant struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ChatID     uint       `gorm:"not null;uniqueIndex:idx_chat_participant" json:"chat_id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_chat_participant;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role       string     `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	LeftAt     *time.Time `json:"left_at,omitempty"`
}

// Message is a single entry within a chat.
type Message struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	ChatID    uint                 `gorm:"not null;index" json:"chat_id"`
	SenderID  uint                 `gorm:"not null;index" json:"sender_id"`
	Sender    *User                `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content   string               `gorm:"type:text" json:"content"`
	Type      string               `gorm:"size:16;not null;default:text" json:"type"`
	FileURL   string               `gorm:"size:512" json:"file_url"`
	FileName  string               `gorm:"size:255" json:"file_name"`
	FileSize  int64                `json:"file_size"`
	MimeType  string               `gorm:"size:128" json:"mime_type"`
	ReplyToID *uint                `gorm:"index" json:"reply_to_id"`
	IsEdited  bool                 `gorm:"not null;default:false" json:"is_edited"`
	EditedAt  *time.Time           `json:"edited_at"`
	IsDeleted bool                 `gorm:"not null;default:false" json:"is_deleted"`
	DeletedAt *time.Time           `json:"deleted_at"`
	Reactions []MessageReaction    `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`
	ReadBy    []MessageReadReceipt `gorm:"foreignKey:MessageID" json:"read_by,omitempty"`
	CreatedAt time.Time            `gorm:"index" json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// MessageReaction stores one emoji reaction; (message, user, emoji) is unique.
type MessageReaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_reaction" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_reaction" json:"user_id"`
	Emoji     string    `gorm:"size:32;not null;uniqueIndex:idx_message_reaction" json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageReadReceipt records that a user has read a message; (message, user) is unique.
type MessageReadReceipt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_message_receipt" json:"message_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_message_receipt" json:"user_id"`
	ReadAt    time.Time `json:"read_at"`
}
