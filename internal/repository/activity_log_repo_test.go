package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func TestActivityLogRepositoryFilters(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	chatID := uint(7)
	otherChat := uint(8)
	old := time.Now().UTC().Add(-48 * time.Hour)

	entries := []models.ActivityLog{
		{ActorID: 1, ActorRole: "alumni", Action: "direct_message_sent", EntityType: "chat", EntityID: &chatID, CorrelationID: "req-1"},
		{ActorID: 2, ActorRole: "alumni", Action: "direct_message_sent", EntityType: "chat", EntityID: &otherChat, CorrelationID: "req-2"},
		{ActorID: 1, ActorRole: "alumni", Action: "direct_message_sent", EntityType: "chat", EntityID: &chatID, CreatedAt: old},
	}
	for i := range entries {
		require.NoError(t, repo.Create(ctx, &entries[i]))
	}

	items, total, err := repo.List(ctx, ActivityLogFilter{EntityType: "chat", EntityID: &chatID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	since := time.Now().UTC().Add(-time.Hour)
	items, total, err = repo.List(ctx, ActivityLogFilter{EntityID: &chatID, Since: &since})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "req-1", items[0].CorrelationID)

	items, total, err = repo.List(ctx, ActivityLogFilter{CorrelationID: "req-2"})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, uint(2), items[0].ActorID)

	items, total, err = repo.List(ctx, ActivityLogFilter{Action: "forum_post_created"})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, items)
}
