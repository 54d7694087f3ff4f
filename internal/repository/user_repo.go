package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

// UserRepository reads user records and mirrors presence onto them.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (models.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UpdatePresence(ctx context.Context, id uint, online bool, lastSeen time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a GORM-backed user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, translate(err, "user not found")
	}
	return user, nil
}

func (r *userRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err, "")
	}
	return users, nil
}

func (r *userRepository) UpdatePresence(ctx context.Context, id uint, online bool, lastSeen time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_online": online, "last_seen_at": lastSeen})
	if result.Error != nil {
		return translate(result.Error, "")
	}
	if result.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user not found")
	}
	return nil
}
