package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// ForumRepository persists forum threads and posts.
type ForumRepository interface {
	ListThreads(ctx context.Context, page, limit int) ([]models.ForumThread, int64, error)
	GetThread(ctx context.Context, id uint) (models.ForumThread, error)
	GetThreadWithPosts(ctx context.Context, id uint) (models.ForumThread, error)
	CreateThread(ctx context.Context, thread *models.ForumThread) error
	CreatePost(ctx context.Context, post *models.ForumPost) error
	ListPosterIDs(ctx context.Context, threadID uint) ([]uint, error)
}

type forumRepository struct {
	db *gorm.DB
}

// NewForumRepository constructs a GORM-backed repository.
func NewForumRepository(db *gorm.DB) ForumRepository {
	return &forumRepository{db: db}
}

func (r *forumRepository) ListThreads(ctx context.Context, page, limit int) ([]models.ForumThread, int64, error) {
	_, limit, offset := normalizePage(page, limit, 20)

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.ForumThread{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "")
	}

	var threads []models.ForumThread
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&threads).Error; err != nil {
		return nil, 0, translate(err, "")
	}
	return threads, total, nil
}

func (r *forumRepository) GetThread(ctx context.Context, id uint) (models.ForumThread, error) {
	var thread models.ForumThread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return models.ForumThread{}, translate(err, "thread not found")
	}
	return thread, nil
}

func (r *forumRepository) GetThreadWithPosts(ctx context.Context, id uint) (models.ForumThread, error) {
	var thread models.ForumThread
	if err := r.db.WithContext(ctx).Preload("Posts", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&thread, id).Error; err != nil {
		return models.ForumThread{}, translate(err, "thread not found")
	}
	return thread, nil
}

func (r *forumRepository) CreateThread(ctx context.Context, thread *models.ForumThread) error {
	return translate(r.db.WithContext(ctx).Create(thread).Error, "")
}

// CreatePost stores the post and bumps the thread so it sorts first.
func (r *forumRepository) CreatePost(ctx context.Context, post *models.ForumPost) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return tx.Model(&models.ForumThread{}).
			Where("id = ?", post.ThreadID).
			UpdateColumn("updated_at", post.CreatedAt).
			Error
	})
	return translate(err, "")
}

// ListPosterIDs returns the distinct authors who have posted in a thread.
func (r *forumRepository) ListPosterIDs(ctx context.Context, threadID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.ForumPost{}).
		Where("thread_id = ?", threadID).
		Distinct().
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, translate(err, "")
	}
	return ids, nil
}
