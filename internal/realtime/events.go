package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

// InboundKind enumerates the events a client may send over the socket.
type InboundKind string

const (
	InboundJoinChat             InboundKind = "join_chat"
	InboundLeaveChat            InboundKind = "leave_chat"
	InboundJoinForum            InboundKind = "join_forum"
	InboundLeaveForum           InboundKind = "leave_forum"
	InboundSendMessage          InboundKind = "send_message"
	InboundTypingStart          InboundKind = "typing_start"
	InboundTypingStop           InboundKind = "typing_stop"
	InboundMarkNotificationRead InboundKind = "mark_notification_read"
)

// Valid reports whether k is one of the known inbound kinds.
func (k InboundKind) Valid() bool {
	switch k {
	case InboundJoinChat, InboundLeaveChat, InboundJoinForum, InboundLeaveForum,
		InboundSendMessage, InboundTypingStart, InboundTypingStop, InboundMarkNotificationRead:
		return true
	default:
		return false
	}
}

// InboundEvent is the frame shape accepted from clients.
type InboundEvent struct {
	Type           InboundKind `json:"type"`
	ChatID         uint        `json:"chat_id,omitempty"`
	ForumID        uint        `json:"forum_id,omitempty"`
	NotificationID uint        `json:"notification_id,omitempty"`
	Content        string      `json:"content,omitempty"`
	MessageType    string      `json:"message_type,omitempty"`
	ReplyTo        *uint       `json:"reply_to,omitempty"`
	FileURL        string      `json:"file_url,omitempty"`
	FileName       string      `json:"file_name,omitempty"`
	FileSize       int64       `json:"file_size,omitempty"`
	MimeType       string      `json:"mime_type,omitempty"`
	RequestID      string      `json:"request_id,omitempty"`
}

// OutboundKind enumerates the events pushed to clients.
type OutboundKind string

const (
	OutboundConnected        OutboundKind = "connected"
	OutboundNewMessage       OutboundKind = "new_message"
	OutboundMessageDeleted   OutboundKind = "message_deleted"
	OutboundMessageEdited    OutboundKind = "message_edited"
	OutboundReactionAdded    OutboundKind = "reaction_added"
	OutboundReactionRemoved  OutboundKind = "reaction_removed"
	OutboundUserJoinedChat   OutboundKind = "user_joined_chat"
	OutboundUserLeftChat     OutboundKind = "user_left_chat"
	OutboundUserTyping       OutboundKind = "user_typing"
	OutboundNewNotification  OutboundKind = "new_notification"
	OutboundNotificationRead OutboundKind = "notification_read"
	OutboundForumUpdate      OutboundKind = "forum_update"
	OutboundMessageError     OutboundKind = "message_error"
	OutboundError            OutboundKind = "error"
)

// Event is the frame shape pushed to clients.
type Event struct {
	Type OutboundKind `json:"type"`
	Data interface{}  `json:"data,omitempty"`
}

// ErrorPayload is carried by message_error and error events.
type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Event     string `json:"event,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Channel name prefixes.
const (
	personalPrefix = "user"
	chatPrefix     = "chat"
	forumPrefix    = "forum"
)

// PersonalChannel names the channel every connection of a user joins on handshake.
func PersonalChannel(userID uint) string {
	return fmt.Sprintf("%s:%d", personalPrefix, userID)
}

// ChatChannel names the broadcast channel of a chat.
func ChatChannel(chatID uint) string {
	return fmt.Sprintf("%s:%d", chatPrefix, chatID)
}

// ForumChannel names the broadcast channel of a forum thread.
func ForumChannel(forumID uint) string {
	return fmt.Sprintf("%s:%d", forumPrefix, forumID)
}

// ChannelKind returns the prefix of a channel name, used as a metric label.
func ChannelKind(channel string) string {
	if idx := strings.IndexByte(channel, ':'); idx > 0 {
		return channel[:idx]
	}
	return "unknown"
}

// ParseChannel splits a channel name into its prefix and numeric id.
func ParseChannel(channel string) (string, uint, bool) {
	idx := strings.IndexByte(channel, ':')
	if idx <= 0 {
		return "", 0, false
	}
	id, err := strconv.ParseUint(channel[idx+1:], 10, 64)
	if err != nil || id == 0 {
		return "", 0, false
	}
	return channel[:idx], uint(id), true
}

// IsChatChannel reports whether channel is a chat channel.
func IsChatChannel(channel string) bool {
	return ChannelKind(channel) == chatPrefix
}

// IsForumChannel reports whether channel is a forum channel.
func IsForumChannel(channel string) bool {
	return ChannelKind(channel) == forumPrefix
}
