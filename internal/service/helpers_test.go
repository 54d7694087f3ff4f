package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
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

type recordedBroadcast struct {
	Channel string
	Event   realtime.Event
	Options realtime.BroadcastOptions
}

// recordingBus captures broadcasts and optionally forwards them to a hub.
type recordingBus struct {
	mu      sync.Mutex
	items   []recordedBroadcast
	panicOn map[string]bool
	hub     *realtime.Hub
}

func (b *recordingBus) Broadcast(_ context.Context, channel string, event realtime.Event, opts realtime.BroadcastOptions) {
	b.mu.Lock()
	b.items = append(b.items, recordedBroadcast{Channel: channel, Event: event, Options: opts})
	fail := b.panicOn[channel]
	b.mu.Unlock()

	if fail {
		panic("broadcast unavailable")
	}
	if b.hub != nil {
		b.hub.Broadcast(channel, event, opts)
	}
}

func (b *recordingBus) RemoveUser(channel string, userID uint) int {
	if b.hub == nil {
		return 0
	}
	return len(b.hub.RemoveUser(channel, userID))
}

func (b *recordingBus) ofType(kind realtime.OutboundKind) []recordedBroadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []recordedBroadcast
	for _, item := range b.items {
		if item.Event.Type == kind {
			out = append(out, item)
		}
	}
	return out
}

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

func signTestToken(t *testing.T, secret string, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(userID), 10),
		"role": models.UserRoleAlumni,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}
