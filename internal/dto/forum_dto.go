package dto

import (
	"time"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// ForumThreadCreateRequest is the payload to create a thread.
type ForumThreadCreateRequest struct {
	Title string `json:"title" validate:"required,min=3,max=255"`
}

// ForumPostCreateRequest creates a post on a thread.
type ForumPostCreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// ForumThreadResponse describes a thread returned by the API.
type ForumThreadResponse struct {
	ID        uint                `json:"id"`
	Title     string              `json:"title"`
	AuthorID  uint                `json:"author_id"`
	Metadata  map[string]string   `json:"metadata,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Posts     []ForumPostResponse `json:"posts,omitempty"`
}

// ForumPostResponse describes a serialized post.
type ForumPostResponse struct {
	ID        uint      `json:"id"`
	ThreadID  uint      `json:"thread_id"`
	AuthorID  uint      `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ForumUpdateEvent is broadcast to a forum channel as forum_update.
type ForumUpdateEvent struct {
	ForumID uint               `json:"forum_id"`
	Action  string             `json:"action"`
	User    *PublicUser        `json:"user,omitempty"`
	Post    *ForumPostResponse `json:"post,omitempty"`
}

// Forum update actions.
const (
	ForumActionMemberJoined = "member_joined"
	ForumActionMemberLeft   = "member_left"
	ForumActionNewPost      = "new_post"
)

// NewForumThreadResponse converts a model into a DTO including posts when preloaded.
func NewForumThreadResponse(model models.ForumThread) ForumThreadResponse {
	response := ForumThreadResponse{
		ID:        model.ID,
		Title:     model.Title,
		AuthorID:  model.AuthorID,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	if model.Metadata != nil {
		response.Metadata = make(map[string]string)
		for key, value := range model.Metadata {
			if str, ok := value.(string); ok {
				response.Metadata[key] = str
			}
		}
	}
	if len(model.Posts) > 0 {
		posts := make([]ForumPostResponse, 0, len(model.Posts))
		for _, post := range model.Posts {
			posts = append(posts, NewForumPostResponse(post))
		}
		response.Posts = posts
	}
	return response
}

// NewForumThreadResponseSlice converts a slice of threads to DTOs.
func NewForumThreadResponseSlice(items []models.ForumThread) []ForumThreadResponse {
	out := make([]ForumThreadResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewForumThreadResponse(item))
	}
	return out
}

// NewForumPostResponse converts a post model to DTO.
func NewForumPostResponse(model models.ForumPost) ForumPostResponse {
	return ForumPostResponse{
		ID:        model.ID,
		ThreadID:  model.ThreadID,
		AuthorID:  model.AuthorID,
		Content:   model.Content,
		CreatedAt: model.CreatedAt,
	}
}
