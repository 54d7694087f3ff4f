package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func setupRepositoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, first string) models.User {
	t.Helper()
	user := models.User{
		FirstName: first,
		LastName:  "Alumnus",
		Email:     strings.ToLower(first) + "@alumni.test",
		Role:      models.UserRoleAlumni,
		Active:    true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
