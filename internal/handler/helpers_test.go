package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/config"
	"github.com/noah-isme/alumni-connect-api/internal/handler"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
	"github.com/noah-isme/alumni-connect-api/internal/router"
	"github.com/noah-isme/alumni-connect-api/internal/service"
)

const testSecret = "handler-secret"

type testEnv struct {
	app           *fiber.App
	db            *gorm.DB
	hub           *realtime.Hub
	presence      *realtime.Presence
	chats         service.ChatService
	notifications service.NotificationService
	activity      service.ActivityService
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Errors  []string        `json:"errors"`
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handler_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := zerolog.New(io.Discard)
	validate := validator.New(validator.WithRequiredStructEnabled())
	hub := realtime.NewHub(logger)
	bus := realtime.NewBus(hub, realtime.BusConfig{}, logger)
	presence := realtime.NewPresence()
	users := repository.NewUserRepository(db)

	activity := service.NewActivityService(repository.NewActivityLogRepository(db), time.Second, logger)
	chats := service.NewChatService(repository.NewChatRepository(db), repository.NewMessageRepository(db), users, bus, nil, validate, logger)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db), users, bus, nil, validate, service.NotificationOptions{}, logger)
	forums := service.NewForumService(repository.NewForumRepository(db), users, notifications, bus, validate, logger)
	gateway := service.NewGatewayService(service.GatewayDeps{
		Hub:           hub,
		Bus:           bus,
		Presence:      presence,
		Users:         users,
		Chats:         chats,
		Notifications: notifications,
		Forums:        forums,
		Signals:       service.NewSignalRelay(bus, logger),
		ParseToken:    middleware.NewTokenParser(testSecret),
	}, service.GatewayOptions{EventTimeout: 2 * time.Second}, logger)

	app := fiber.New()
	app.Use(middleware.CorrelationID())
	router.Register(app, config.Config{AppName: "alumni-test", AppEnv: "test", JWTSecret: testSecret}, router.Dependencies{
		SocketHandler:       handler.NewSocketHandler(gateway, logger),
		ChatHandler:         handler.NewChatHandler(chats, validate, middleware.RateLimit("messages", 3, time.Minute), logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, gateway, validate, 50*time.Millisecond, logger),
		ForumHandler:        handler.NewForumHandler(forums, validate, logger),
		PresenceHandler:     handler.NewPresenceHandler(gateway, logger),
		AdminHandler:        handler.NewAdminHandler(activity, notifications, validate, logger),
		Bus:                 bus,
		Presence:            presence,
	})

	return &testEnv{
		app:           app,
		db:            db,
		hub:           hub,
		presence:      presence,
		chats:         chats,
		notifications: notifications,
		activity:      activity,
	}
}

func (e *testEnv) seedUser(t *testing.T, first, role string) models.User {
	t.Helper()
	user := models.User{
		FirstName: first,
		LastName:  "Alumnus",
		Email:     strings.ToLower(first) + "@alumni.test",
		Role:      role,
		Active:    true,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

// listen serves the app on a loopback port for socket and stream tests.
func (e *testEnv) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		_ = e.app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = e.app.ShutdownWithTimeout(time.Second)
	})
	return ln.Addr().String()
}

func signToken(t *testing.T, userID uint, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func decodeData(t *testing.T, body envelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body.Data, target))
}

func idPath(format string, ids ...uint) string {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return fmt.Sprintf(format, args...)
}
