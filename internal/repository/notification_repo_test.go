package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func TestNotificationRepositoryHidesExpiredAndSweeps(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	live := models.Notification{RecipientID: 1, Type: "system", Title: "Live", Message: "m", Priority: "medium", ExpiresAt: now.Add(time.Hour)}
	expired := models.Notification{RecipientID: 1, Type: "system", Title: "Old", Message: "m", Priority: "medium", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, &live))
	require.NoError(t, repo.Create(ctx, &expired))

	items, total, err := repo.ListByRecipient(ctx, 1, 1, 10, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "Live", items[0].Title)

	count, err := repo.CountUnread(ctx, 1, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)
}

func TestNotificationRepositoryReadStateIsScopedToRecipient(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	first := models.Notification{RecipientID: 1, Type: "system", Title: "A", Message: "m", Priority: "medium", ExpiresAt: now.Add(time.Hour)}
	second := models.Notification{RecipientID: 1, Type: "system", Title: "B", Message: "m", Priority: "medium", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, &first))
	require.NoError(t, repo.Create(ctx, &second))

	_, err := repo.MarkRead(ctx, first.ID, 2, now)
	require.ErrorIs(t, err, apperror.ErrNotFound)

	read, err := repo.MarkRead(ctx, first.ID, 1, now)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	updated, err := repo.MarkAllRead(ctx, 1, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	require.ErrorIs(t, repo.Delete(ctx, second.ID, 2), apperror.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, second.ID, 1))
}
