package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
)

// translate maps GORM failures onto the application error taxonomy.
func translate(err error, notFound string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFound)
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Transient("database operation failed", err)
}

func normalizePage(page, limit, defaultLimit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}
