package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

func newNotificationServiceForTest(t *testing.T, bus realtime.Broadcaster, redisClient *redis.Client) (NotificationService, *gorm.DB) {
	t.Helper()
	db := setupServiceDB(t)
	svc := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewUserRepository(db),
		bus,
		redisClient,
		newTestValidator(),
		NotificationOptions{},
		testLogger(),
	)
	return svc, db
}

func TestNotifyBulkPersistsDespitePushFailure(t *testing.T) {
	bus := &recordingBus{panicOn: map[string]bool{}}
	svc, db := newNotificationServiceForTest(t, bus, nil)
	ana := seedUser(t, db, "Ana")
	budi := seedUser(t, db, "Budi")
	citra := seedUser(t, db, "Citra")
	bus.panicOn[realtime.PersonalChannel(budi.ID)] = true

	result, err := svc.NotifyBulk(context.Background(), []uint{ana.ID, budi.ID, citra.ID, budi.ID}, dto.NotificationTemplate{
		Type:    NotificationSystem,
		Title:   "Reunion",
		Message: "The 2026 reunion schedule is live",
	})
	require.NoError(t, err)
	require.Equal(t, 3, result.Created)
	require.Empty(t, result.Failed)

	var stored int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&stored).Error)
	require.Equal(t, int64(3), stored)
	require.Len(t, bus.ofType(realtime.OutboundNewNotification), 3)
}

func TestNotifyRejectsInvalidData(t *testing.T) {
	bus := &recordingBus{}
	svc, db := newNotificationServiceForTest(t, bus, nil)
	ana := seedUser(t, db, "Ana")

	_, err := svc.Notify(context.Background(), dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    NotificationEventReminder,
			Title:   "Homecoming",
			Message: "Starts tomorrow",
			Data:    map[string]interface{}{"venue": "Main hall"},
		},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	_, err = svc.Notify(context.Background(), dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    "carrier_pigeon",
			Title:   "Hi",
			Message: "Hi",
		},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	require.Zero(t, bus.count())
}

func TestOfflineRecipientFindsNotificationWithActionURL(t *testing.T) {
	bus := &recordingBus{hub: realtime.NewHub(testLogger())}
	svc, db := newNotificationServiceForTest(t, bus, nil)
	ana := seedUser(t, db, "Ana")
	budi := seedUser(t, db, "Budi")
	senderID := ana.ID
	ctx := context.Background()

	created, err := svc.Notify(ctx, dto.NotificationCreateRequest{
		RecipientID: budi.ID,
		NotificationTemplate: dto.NotificationTemplate{
			SenderID: &senderID,
			Type:     NotificationConnectionRequest,
			Title:    "New connection request",
			Message:  "Ana wants to connect",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "medium", created.Priority)
	require.Equal(t, "/alumni/"+uintString(ana.ID), created.ActionURL)
	require.NotNil(t, created.Sender)
	require.Equal(t, ana.ID, created.Sender.ID)

	list, err := svc.List(ctx, budi.ID, 1, 20)
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	require.Equal(t, created.ID, list.Items[0].ID)
	require.Equal(t, created.ActionURL, list.Items[0].ActionURL)
	require.False(t, list.Items[0].IsRead)
	require.Equal(t, int64(1), list.UnreadCount)
}

func TestUnreadCountUsesCacheAndInvalidatesOnRead(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	bus := &recordingBus{}
	svc, db := newNotificationServiceForTest(t, bus, redisClient)
	ana := seedUser(t, db, "Ana")
	ctx := context.Background()

	created, err := svc.Notify(ctx, dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    NotificationJobPosted,
			Title:   "New role",
			Message: "Backend engineer at Acme",
			Data:    map[string]interface{}{"jobId": 42},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "/jobs/42", created.ActionURL)

	count, err := svc.UnreadCount(ctx, ana.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	cached, err := server.Get("alumni:notifications:unread:" + uintString(ana.ID))
	require.NoError(t, err)
	require.Equal(t, "1", cached)

	read, err := svc.MarkRead(ctx, created.ID, ana.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.False(t, server.Exists("alumni:notifications:unread:"+uintString(ana.ID)))
	require.Len(t, bus.ofType(realtime.OutboundNotificationRead), 1)

	count, err = svc.UnreadCount(ctx, ana.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMarkReadIsScopedToRecipient(t *testing.T) {
	svc, db := newNotificationServiceForTest(t, &recordingBus{}, nil)
	ana := seedUser(t, db, "Ana")
	budi := seedUser(t, db, "Budi")
	ctx := context.Background()

	created, err := svc.Notify(ctx, dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    NotificationSystem,
			Title:   "Maintenance",
			Message: "Tonight at 22:00",
		},
	})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, created.ID, budi.ID)
	require.ErrorIs(t, err, apperror.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID, budi.ID), apperror.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, created.ID, ana.ID))
}

func TestNotifyRejectsPastExpiry(t *testing.T) {
	svc, db := newNotificationServiceForTest(t, &recordingBus{}, nil)
	ana := seedUser(t, db, "Ana")
	past := time.Now().Add(-time.Hour)

	_, err := svc.Notify(context.Background(), dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:      NotificationSystem,
			Title:     "Old news",
			Message:   "Already over",
			ExpiresAt: &past,
		},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestActionURLFor(t *testing.T) {
	sender := uint(7)
	cases := []struct {
		name     string
		kind     string
		sender   *uint
		data     map[string]interface{}
		expected string
	}{
		{"connection uses sender", NotificationConnectionRequest, &sender, nil, "/alumni/7"},
		{"connection accepted without sender", NotificationConnectionAccepted, nil, map[string]interface{}{"sender_id": 9}, "/alumni/9"},
		{"event snake case", NotificationEventReminder, nil, map[string]interface{}{"event_id": float64(3)}, "/events/3"},
		{"event camel case", NotificationEventUpdate, nil, map[string]interface{}{"eventId": "12"}, "/events/12"},
		{"job status", NotificationJobStatusUpdate, nil, map[string]interface{}{"job_id": 5}, "/jobs/5"},
		{"message", NotificationMessage, nil, map[string]interface{}{"chatId": 11}, "/messages/11"},
		{"forum reply", NotificationForumReply, nil, map[string]interface{}{"thread_id": 4}, "/forums/4"},
		{"survey", NotificationSurveyInvite, nil, map[string]interface{}{"survey_id": "s-1"}, "/surveys/s-1"},
		{"missing id", NotificationJobPosted, nil, nil, "/jobs"},
		{"system", NotificationSystem, nil, nil, "/notifications"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, ActionURLFor(tc.kind, tc.sender, tc.data))
		})
	}
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestNotifyStoresPlainText(t *testing.T) {
	bus := &recordingBus{}
	svc, db := newNotificationServiceForTest(t, bus, nil)
	ana := seedUser(t, db, "Ana")
	ctx := context.Background()

	created, err := svc.Notify(ctx, dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    NotificationSystem,
			Title:   `Q&A <b>tonight</b>`,
			Message: `Seats < 20, "first come"`,
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Q&A tonight", created.Title)
	require.Equal(t, `Seats < 20, "first come"`, created.Message)

	var stored models.Notification
	require.NoError(t, db.First(&stored, created.ID).Error)
	require.Equal(t, "Q&A tonight", stored.Title)
	require.Equal(t, `Seats < 20, "first come"`, stored.Message)

	_, err = svc.Notify(ctx, dto.NotificationCreateRequest{
		RecipientID: ana.ID,
		NotificationTemplate: dto.NotificationTemplate{
			Type:    NotificationSystem,
			Title:   "<b></b>",
			Message: "body",
		},
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
}
