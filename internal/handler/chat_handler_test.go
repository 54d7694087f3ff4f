package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/models"
)

func TestChatRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/v2/chats", "", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.False(t, body.Success)

	resp, _ = env.do(t, http.MethodGet, "/api/v2/chats", "not-a-token", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestCreateDirectChatReturnsExistingChat(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	budi := env.seedUser(t, "Budi", models.UserRoleAlumni)
	token := signToken(t, ana.ID, models.UserRoleAlumni)

	payload := map[string]interface{}{"type": "direct", "participant_id": budi.ID}
	resp, body := env.do(t, http.MethodPost, "/api/v2/chats", token, payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var created dto.ChatResponse
	decodeData(t, body, &created)
	require.Len(t, created.Participants, 2)

	resp, body = env.do(t, http.MethodPost, "/api/v2/chats", signToken(t, budi.ID, models.UserRoleAlumni), map[string]interface{}{"type": "direct", "participant_id": ana.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "chat already exists", body.Message)
	var existing dto.ChatResponse
	decodeData(t, body, &existing)
	require.Equal(t, created.ID, existing.ID)
}

func TestCreateChatRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	token := signToken(t, ana.ID, models.UserRoleAlumni)

	resp, body := env.do(t, http.MethodPost, "/api/v2/chats", token, map[string]interface{}{"type": "broadcast"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.NotEmpty(t, body.Errors)

	resp, _ = env.do(t, http.MethodPost, "/api/v2/chats", token, map[string]interface{}{"type": "direct", "participant_id": ana.ID})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	budi := env.seedUser(t, "Budi", models.UserRoleAlumni)
	citra := env.seedUser(t, "Citra", models.UserRoleAlumni)
	chat, _, err := env.chats.CreateDirectChat(t.Context(), ana.ID, budi.ID)
	require.NoError(t, err)

	anaToken := signToken(t, ana.ID, models.UserRoleAlumni)
	path := idPath("/api/v2/chats/%d/messages", chat.ID)

	resp, body := env.do(t, http.MethodPost, path, anaToken, map[string]interface{}{"content": "Hello <script>x</script>Budi"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var sent dto.MessageResponse
	decodeData(t, body, &sent)
	require.Equal(t, "Hello Budi", sent.Content)
	require.Equal(t, ana.ID, sent.Sender.ID)

	resp, body = env.do(t, http.MethodPost, path, anaToken, map[string]interface{}{"content": "   "})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.False(t, body.Success)

	resp, body = env.do(t, http.MethodGet, path+"?page=1&limit=10", signToken(t, budi.ID, models.UserRoleAlumni), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var messages []dto.MessageResponse
	decodeData(t, body, &messages)
	require.Len(t, messages, 1)
	require.NotEmpty(t, body.Meta)

	resp, _ = env.do(t, http.MethodGet, path, signToken(t, citra.ID, models.UserRoleAlumni), nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path+"?limit=500", anaToken, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSendMessageIsRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	budi := env.seedUser(t, "Budi", models.UserRoleAlumni)
	chat, _, err := env.chats.CreateDirectChat(t.Context(), ana.ID, budi.ID)
	require.NoError(t, err)

	token := signToken(t, ana.ID, models.UserRoleAlumni)
	path := idPath("/api/v2/chats/%d/messages", chat.ID)
	for i := 0; i < 3; i++ {
		resp, _ := env.do(t, http.MethodPost, path, token, map[string]interface{}{"content": "ping"})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, _ := env.do(t, http.MethodPost, path, token, map[string]interface{}{"content": "ping"})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestMissingChatIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	token := signToken(t, ana.ID, models.UserRoleAlumni)

	resp, _ := env.do(t, http.MethodGet, "/api/v2/chats/9999", token, nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/v2/chats/abc", token, nil)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestMarkChatReadAndReact(t *testing.T) {
	env := newTestEnv(t)
	ana := env.seedUser(t, "Ana", models.UserRoleAlumni)
	budi := env.seedUser(t, "Budi", models.UserRoleAlumni)
	chat, _, err := env.chats.CreateDirectChat(t.Context(), ana.ID, budi.ID)
	require.NoError(t, err)
	message, err := env.chats.SendMessage(t.Context(), chat.ID, ana.ID, dto.SendMessageRequest{Content: "Reunion on Friday"})
	require.NoError(t, err)

	budiToken := signToken(t, budi.ID, models.UserRoleAlumni)

	resp, _ := env.do(t, http.MethodPut, idPath("/api/v2/chats/%d/read", chat.ID), budiToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := env.do(t, http.MethodPost, idPath("/api/v2/chats/messages/%d/reactions", message.ID), budiToken, map[string]interface{}{"emoji": "🎉"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, body.Success)

	resp, _ = env.do(t, http.MethodPost, idPath("/api/v2/chats/messages/%d/reactions", message.ID), budiToken, map[string]interface{}{"emoji": ""})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, idPath("/api/v2/chats/messages/%d", message.ID), budiToken, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
