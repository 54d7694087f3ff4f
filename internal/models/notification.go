package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a persisted, expiring message addressed to a single recipient.
type Notification struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	RecipientID uint              `gorm:"not null;index" json:"recipient_id"`
	SenderID    *uint             `gorm:"index" json:"sender_id"`
	Sender      *User             `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type        string            `gorm:"size:64;not null;index" json:"type"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Message     string            `gorm:"type:text" json:"message"`
	Data        datatypes.JSONMap `gorm:"type:json" json:"data"`
	IsRead      bool              `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt      *time.Time        `json:"read_at"`
	Priority    string            `gorm:"size:16;not null;default:medium" json:"priority"`
	ActionURL   string            `gorm:"size:255" json:"action_url"`
	ExpiresAt   time.Time         `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
