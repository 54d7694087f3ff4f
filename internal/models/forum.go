package models

import (
	"time"

	"gorm.io/datatypes"
)

// ForumThread represents a discussion topic inside the alumni forums.
type ForumThread struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	Title     string            `gorm:"size:255;not null" json:"title"`
	AuthorID  uint              `gorm:"not null;index" json:"author_id"`
	Metadata  datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Posts     []ForumPost       `gorm:"foreignKey:ThreadID" json:"posts"`
}

// ForumPost represents a reply within a forum thread.
type ForumPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ThreadID  uint      `gorm:"index;not null" json:"thread_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
