package dto

import (
	"time"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// PublicUser is the only user projection allowed in realtime payloads.
type PublicUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// NewPublicUser strips a user model down to its public fields.
func NewPublicUser(user models.User) PublicUser {
	return PublicUser{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}
}

func publicUserOrID(user *models.User, id uint) PublicUser {
	if user == nil || user.ID == 0 {
		return PublicUser{ID: id}
	}
	return NewPublicUser(*user)
}

// PresenceResponse reports the live presence of a user.
type PresenceResponse struct {
	UserID     uint       `json:"user_id"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// ConnectedEvent is pushed once a socket handshake completes.
type ConnectedEvent struct {
	ClientID string     `json:"client_id"`
	User     PublicUser `json:"user"`
	Channels []string   `json:"channels"`
}
