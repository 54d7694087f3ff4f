package dto

import (
	"time"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// CreateChatRequest creates either a direct chat (ParticipantID) or a group chat (Name + ParticipantIDs).
type CreateChatRequest struct {
	Type           string `json:"type" validate:"required,oneof=direct group"`
	ParticipantID  uint   `json:"participant_id"`
	Name           string `json:"name" validate:"omitempty,max=255"`
	Description    string `json:"description" validate:"omitempty,max=2000"`
	ParticipantIDs []uint `json:"participant_ids" validate:"omitempty,max=256,dive,gt=0"`
	IsPrivate      bool   `json:"is_private"`
}

// GroupChatOptions carries the optional attributes of a new group chat.
type GroupChatOptions struct {
	Description string
	IsPrivate   bool
}

// SendMessageRequest is shared by the HTTP send route and the send_message socket event.
type SendMessageRequest struct {
	Content   string `json:"content" validate:"max=4000"`
	Type      string `json:"type" validate:"omitempty,oneof=text image file audio video system"`
	ReplyToID *uint  `json:"reply_to_id"`
	FileURL   string `json:"file_url" validate:"omitempty,url,max=512"`
	FileName  string `json:"file_name" validate:"omitempty,max=255"`
	FileSize  int64  `json:"file_size" validate:"omitempty,min=0"`
	MimeType  string `json:"mime_type" validate:"omitempty,max=128"`
}

// EditMessageRequest replaces the content of a text message.
type EditMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=4000"`
}

// ReactionRequest carries the emoji of a reaction.
type ReactionRequest struct {
	Emoji string `json:"emoji" validate:"required,min=1,max=32"`
}

// AddParticipantsRequest adds users to a group chat.
type AddParticipantsRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required,min=1,max=256,dive,gt=0"`
}

// ArchiveChatRequest toggles the archived flag.
type ArchiveChatRequest struct {
	Archived bool `json:"archived"`
}

// FileMetadata describes an attachment referenced by a message.
type FileMetadata struct {
	URL      string `json:"url"`
	Name     string `json:"name,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// ReactionResponse is a single reaction entry.
type ReactionResponse struct {
	UserID    uint      `json:"user_id"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"created_at"`
}

// ReadReceiptResponse is a single read-receipt entry.
type ReadReceiptResponse struct {
	UserID uint      `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// MessageResponse is the shape broadcast as new_message and returned by history endpoints.
type MessageResponse struct {
	ID        uint                  `json:"id"`
	ChatID    uint                  `json:"chat_id"`
	Sender    PublicUser            `json:"sender"`
	Content   string                `json:"content"`
	Type      string                `json:"type"`
	File      *FileMetadata         `json:"file,omitempty"`
	ReplyToID *uint                 `json:"reply_to_id,omitempty"`
	IsEdited  bool                  `json:"is_edited"`
	EditedAt  *time.Time            `json:"edited_at,omitempty"`
	IsDeleted bool                  `json:"is_deleted"`
	DeletedAt *time.Time            `json:"deleted_at,omitempty"`
	Reactions []ReactionResponse    `json:"reactions"`
	ReadBy    []ReadReceiptResponse `json:"read_by"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewMessageResponse converts a message model into its wire shape.
func NewMessageResponse(message models.Message) MessageResponse {
	response := MessageResponse{
		ID:        message.ID,
		ChatID:    message.ChatID,
		Sender:    publicUserOrID(message.Sender, message.SenderID),
		Content:   message.Content,
		Type:      message.Type,
		ReplyToID: message.ReplyToID,
		IsEdited:  message.IsEdited,
		EditedAt:  message.EditedAt,
		IsDeleted: message.IsDeleted,
		DeletedAt: message.DeletedAt,
		Reactions: make([]ReactionResponse, 0, len(message.Reactions)),
		ReadBy:    make([]ReadReceiptResponse, 0, len(message.ReadBy)),
		CreatedAt: message.CreatedAt,
		UpdatedAt: message.UpdatedAt,
	}
	if message.FileURL != "" && !message.IsDeleted {
		response.File = &FileMetadata{
			URL:      message.FileURL,
			Name:     message.FileName,
			Size:     message.FileSize,
			MimeType: message.MimeType,
		}
	}
	for _, reaction := range message.Reactions {
		response.Reactions = append(response.Reactions, ReactionResponse{
			UserID:    reaction.UserID,
			Emoji:     reaction.Emoji,
			CreatedAt: reaction.CreatedAt,
		})
	}
	for _, receipt := range message.ReadBy {
		response.ReadBy = append(response.ReadBy, ReadReceiptResponse{
			UserID: receipt.UserID,
			ReadAt: receipt.ReadAt,
		})
	}
	return response
}

// NewMessageResponseSlice converts a slice of messages.
func NewMessageResponseSlice(messages []models.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		out = append(out, NewMessageResponse(message))
	}
	return out
}

// ParticipantResponse describes a chat member.
type ParticipantResponse struct {
	User       PublicUser `json:"user"`
	Role       string     `json:"role"`
	JoinedAt   time.Time  `json:"joined_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

// ChatResponse is the serialized representation of a chat.
type ChatResponse struct {
	ID             uint                  `json:"id"`
	Type           string                `json:"type"`
	Name           string                `json:"name,omitempty"`
	Description    string                `json:"description,omitempty"`
	CreatedBy      uint                  `json:"created_by"`
	Participants   []ParticipantResponse `json:"participants"`
	LastMessageID  *uint                 `json:"last_message_id,omitempty"`
	LastMessage    *MessageResponse      `json:"last_message,omitempty"`
	LastActivityAt *time.Time            `json:"last_activity_at,omitempty"`
	IsArchived     bool                  `json:"is_archived"`
	IsPinned       bool                  `json:"is_pinned"`
	IsPrivate      bool                  `json:"is_private"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewChatResponse converts a chat model; only current participants are listed.
func NewChatResponse(chat models.Chat) ChatResponse {
	response := ChatResponse{
		ID:             chat.ID,
		Type:           chat.Type,
		Name:           chat.Name,
		Description:    chat.Description,
		CreatedBy:      chat.CreatedBy,
		Participants:   make([]ParticipantResponse, 0, len(chat.Participants)),
		LastMessageID:  chat.LastMessageID,
		LastActivityAt: chat.LastActivityAt,
		IsArchived:     chat.IsArchived,
		IsPinned:       chat.IsPinned,
		IsPrivate:      chat.IsPrivate,
		CreatedAt:      chat.CreatedAt,
		UpdatedAt:      chat.UpdatedAt,
	}
	for _, participant := range chat.Participants {
		if participant.LeftAt != nil {
			continue
		}
		response.Participants = append(response.Participants, ParticipantResponse{
			User:       publicUserOrID(participant.User, participant.UserID),
			Role:       participant.Role,
			JoinedAt:   participant.JoinedAt,
			LastSeenAt: participant.LastSeenAt,
		})
	}
	return response
}

// ChatListResponse wraps a paginated chat list.
type ChatListResponse struct {
	Items      []ChatResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
}

// MessageListResponse wraps a paginated message history.
type MessageListResponse struct {
	Items      []MessageResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// MarkReadResponse reports the outcome of a bulk mark-read.
type MarkReadResponse struct {
	ChatID uint  `json:"chat_id"`
	Marked int64 `json:"marked"`
}

// ReactionResult reports the state of a reaction after a toggle.
type ReactionResult struct {
	MessageID uint   `json:"message_id"`
	Emoji     string `json:"emoji"`
	Active    bool   `json:"active"`
}

// MessageDeletedEvent is broadcast when a message is soft-deleted; it never carries content.
type MessageDeletedEvent struct {
	ID     uint `json:"id"`
	ChatID uint `json:"chat_id"`
}

// ReactionEvent is broadcast for reaction_added and reaction_removed.
type ReactionEvent struct {
	MessageID uint       `json:"message_id"`
	ChatID    uint       `json:"chat_id"`
	User      PublicUser `json:"user"`
	Emoji     string     `json:"emoji"`
}

// TypingEvent is broadcast for typing start/stop signals.
type TypingEvent struct {
	ChatID   uint       `json:"chat_id"`
	User     PublicUser `json:"user"`
	IsTyping bool       `json:"is_typing"`
}

// ChatMembershipEvent is broadcast when a connection joins or leaves a chat channel.
type ChatMembershipEvent struct {
	ChatID uint       `json:"chat_id"`
	User   PublicUser `json:"user"`
}
