package models

import "time"

// User roles recognised by the platform.
const (
	UserRoleAlumni = "alumni"
	UserRoleAdmin  = "admin"
)

// User represents an alumni platform account.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	FirstName    string     `gorm:"size:100;not null" json:"first_name"`
	LastName     string     `gorm:"size:100;not null" json:"last_name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Avatar       string     `gorm:"size:512" json:"avatar"`
	Role         string     `gorm:"size:32;not null;default:alumni" json:"role"`
	Active       bool       `gorm:"not null" json:"active"`
	IsOnline     bool       `gorm:"not null;default:false" json:"is_online"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
