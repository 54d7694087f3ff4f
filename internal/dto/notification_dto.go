package dto

import (
	"time"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// NotificationTemplate describes the content of a notification independent of its recipient.
type NotificationTemplate struct {
	SenderID  *uint                  `json:"sender_id,omitempty"`
	Type      string                 `json:"type" validate:"required,oneof=connection_request connection_accepted event_reminder event_update job_status_update job_posted message forum_reply survey_invite system"`
	Title     string                 `json:"title" validate:"required,min=1,max=255"`
	Message   string                 `json:"message" validate:"required,min=1,max=2000"`
	Data      map[string]interface{} `json:"data"`
	Priority  string                 `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	ExpiresAt *time.Time             `json:"expires_at"`
}

// NotificationCreateRequest describes the payload to create a notification for one recipient.
type NotificationCreateRequest struct {
	RecipientID uint `json:"recipient_id" validate:"required"`
	NotificationTemplate
}

// BulkNotificationRequest fans one template out to many recipients.
type BulkNotificationRequest struct {
	RecipientIDs []uint               `json:"recipient_ids" validate:"required,min=1,max=1000,dive,gt=0"`
	Template     NotificationTemplate `json:"template"`
}

// NotificationResponse represents notification data returned to clients and pushed as new_notification.
type NotificationResponse struct {
	ID          uint                   `json:"id"`
	RecipientID uint                   `json:"recipient_id"`
	Sender      *PublicUser            `json:"sender,omitempty"`
	Type        string                 `json:"type"`
	Title       string                 `json:"title"`
	Message     string                 `json:"message"`
	Data        map[string]interface{} `json:"data"`
	IsRead      bool                   `json:"is_read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	Priority    string                 `json:"priority"`
	ActionURL   string                 `json:"action_url"`
	ExpiresAt   time.Time              `json:"expires_at"`
	CreatedAt   time.Time              `json:"created_at"`
}

// NewNotificationResponse converts a notification model to DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	response := NotificationResponse{
		ID:          model.ID,
		RecipientID: model.RecipientID,
		Type:        model.Type,
		Title:       model.Title,
		Message:     model.Message,
		Data:        map[string]interface{}{},
		IsRead:      model.IsRead,
		ReadAt:      model.ReadAt,
		Priority:    model.Priority,
		ActionURL:   model.ActionURL,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
	}
	if model.Data != nil {
		response.Data = map[string]interface{}(model.Data)
	}
	if model.SenderID != nil {
		sender := publicUserOrID(model.Sender, *model.SenderID)
		response.Sender = &sender
	}
	return response
}

// NewNotificationResponseSlice converts a slice to DTOs.
func NewNotificationResponseSlice(items []models.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewNotificationResponse(item))
	}
	return out
}

// NotificationListResponse wraps a page of notifications with the unread total.
type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	Pagination  PaginationMeta         `json:"pagination"`
	UnreadCount int64                  `json:"unread_count"`
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// BulkNotificationResponse summarises a bulk dispatch.
type BulkNotificationResponse struct {
	Created int                    `json:"created"`
	Failed  []uint                 `json:"failed,omitempty"`
	Items   []NotificationResponse `json:"items"`
}

// NotificationReadEvent is pushed to the recipient's other connections after mark-read.
type NotificationReadEvent struct {
	ID     uint      `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
