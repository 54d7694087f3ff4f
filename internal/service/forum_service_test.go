package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

func TestForumPostBroadcastsAndNotifiesParticipants(t *testing.T) {
	db := setupServiceDB(t)
	bus := &recordingBus{}
	users := repository.NewUserRepository(db)
	validate := newTestValidator()
	notifications := NewNotificationService(repository.NewNotificationRepository(db), users, bus, nil, validate, NotificationOptions{}, testLogger())
	svc := NewForumService(repository.NewForumRepository(db), users, notifications, bus, validate, testLogger())

	ana := seedUser(t, db, "Ana")
	budi := seedUser(t, db, "Budi")
	citra := seedUser(t, db, "Citra")
	ctx := context.Background()

	thread, err := svc.CreateThread(ctx, ana.ID, models.UserRoleAlumni, dto.ForumThreadCreateRequest{Title: "Mentoring for juniors"})
	require.NoError(t, err)

	_, err = svc.CreatePost(ctx, thread.ID, budi.ID, dto.ForumPostCreateRequest{Content: "Count me in"})
	require.NoError(t, err)

	updates := bus.ofType(realtime.OutboundForumUpdate)
	require.Len(t, updates, 1)
	require.Equal(t, realtime.ForumChannel(thread.ID), updates[0].Channel)
	update := updates[0].Event.Data.(dto.ForumUpdateEvent)
	require.Equal(t, dto.ForumActionNewPost, update.Action)
	require.NotNil(t, update.User)
	require.Equal(t, budi.ID, update.User.ID)

	_, err = svc.CreatePost(ctx, thread.ID, citra.ID, dto.ForumPostCreateRequest{Content: "Me too"})
	require.NoError(t, err)

	var forAna, forBudi, forCitra []models.Notification
	require.NoError(t, db.Where("recipient_id = ?", ana.ID).Find(&forAna).Error)
	require.NoError(t, db.Where("recipient_id = ?", budi.ID).Find(&forBudi).Error)
	require.NoError(t, db.Where("recipient_id = ?", citra.ID).Find(&forCitra).Error)
	require.Len(t, forAna, 2)
	require.Len(t, forBudi, 1)
	require.Empty(t, forCitra)
	require.Equal(t, NotificationForumReply, forBudi[0].Type)
	require.Equal(t, "/forums/"+uintString(thread.ID), forBudi[0].ActionURL)
}

func TestForumThreadExists(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewForumService(repository.NewForumRepository(db), repository.NewUserRepository(db), nil, &recordingBus{}, newTestValidator(), testLogger())

	require.ErrorIs(t, svc.ThreadExists(context.Background(), 404), apperror.ErrNotFound)

	_, err := svc.CreateThread(context.Background(), 1, "", dto.ForumThreadCreateRequest{Title: "<script></script>"})
	require.ErrorIs(t, err, apperror.ErrValidation)
}
