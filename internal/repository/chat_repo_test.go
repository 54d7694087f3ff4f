package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func newDirectChat(a, b uint) *models.Chat {
	key := models.DirectChatKey(a, b)
	now := time.Now().UTC()
	return &models.Chat{
		Type:      models.ChatTypeDirect,
		DirectKey: &key,
		CreatedBy: a,
		Participants: []models.ChatParticipant{
			{UserID: a, Role: models.ParticipantRoleMember, JoinedAt: now},
			{UserID: b, Role: models.ParticipantRoleMember, JoinedAt: now},
		},
	}
}

func TestChatRepositoryDirectKeyIsUnique(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")

	require.NoError(t, repo.Create(ctx, newDirectChat(alice.ID, bob.ID)))
	err := repo.Create(ctx, newDirectChat(bob.ID, alice.ID))
	require.ErrorIs(t, err, apperror.ErrTransient)

	chat, err := repo.FindDirectByKey(ctx, models.DirectChatKey(bob.ID, alice.ID))
	require.NoError(t, err)
	require.Len(t, chat.Participants, 2)
	require.NotNil(t, chat.Participants[0].User)

	_, err = repo.FindByID(ctx, 999)
	require.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestChatRepositoryUpdateSummaryNeverRegresses(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")

	chat := newDirectChat(alice.ID, bob.ID)
	require.NoError(t, repo.Create(ctx, chat))

	later := time.Now().UTC()
	earlier := later.Add(-time.Minute)

	updated, err := repo.UpdateSummary(ctx, chat.ID, 2, later)
	require.NoError(t, err)
	require.True(t, updated)

	updated, err = repo.UpdateSummary(ctx, chat.ID, 1, earlier)
	require.NoError(t, err)
	require.False(t, updated, "older message must not replace the summary")

	stored, err := repo.FindByID(ctx, chat.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastMessageID)
	require.Equal(t, uint(2), *stored.LastMessageID)
}

func TestChatRepositoryParticipantsLifecycle(t *testing.T) {
	db := setupRepositoryDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "Alice")
	bob := seedUser(t, db, "Bob")
	carol := seedUser(t, db, "Carol")

	now := time.Now().UTC()
	chat := &models.Chat{
		Type:      models.ChatTypeGroup,
		Name:      "Class of 2015",
		CreatedBy: alice.ID,
		Participants: []models.ChatParticipant{
			{UserID: alice.ID, Role: models.ParticipantRoleAdmin, JoinedAt: now},
			{UserID: bob.ID, Role: models.ParticipantRoleMember, JoinedAt: now},
		},
	}
	require.NoError(t, repo.Create(ctx, chat))

	require.NoError(t, repo.RemoveParticipant(ctx, chat.ID, bob.ID, now))
	require.ErrorIs(t, repo.RemoveParticipant(ctx, chat.ID, bob.ID, now), apperror.ErrNotFound)

	chats, total, err := repo.ListForUser(ctx, bob.ID, ChatListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, chats)

	require.NoError(t, repo.AddParticipants(ctx, chat.ID, []models.ChatParticipant{
		{UserID: bob.ID, Role: models.ParticipantRoleMember, JoinedAt: now},
		{UserID: carol.ID, Role: models.ParticipantRoleMember, JoinedAt: now},
	}))

	stored, err := repo.FindByID(ctx, chat.ID)
	require.NoError(t, err)
	_, active := stored.ActiveParticipant(bob.ID)
	require.True(t, active, "rejoined participant should be active again")
	_, active = stored.ActiveParticipant(carol.ID)
	require.True(t, active)

	chats, total, err = repo.ListForUser(ctx, carol.ID, ChatListFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, chat.ID, chats[0].ID)

	require.NoError(t, repo.SetArchived(ctx, chat.ID, true))
	_, total, err = repo.ListForUser(ctx, carol.ID, ChatListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	_, total, err = repo.ListForUser(ctx, carol.ID, ChatListFilter{IncludeArchived: true})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
}
