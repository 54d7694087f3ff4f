package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Forbidden("not a participant"))

	require.True(t, errors.Is(err, ErrForbidden))
	require.False(t, errors.Is(err, ErrNotFound))
	require.Equal(t, KindForbidden, KindOf(err))
}

func TestTransientUnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("failed to persist message", cause)

	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrTransient)
	require.Equal(t, "failed to persist message: connection reset", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Validation("content required"), fiber.StatusBadRequest},
		{NotFound("chat not found"), fiber.StatusNotFound},
		{Forbidden("nope"), fiber.StatusForbidden},
		{Auth("token invalid"), fiber.StatusUnauthorized},
		{Transient("db down", nil), fiber.StatusServiceUnavailable},
		{RateLimited("slow down"), fiber.StatusTooManyRequests},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		require.Equal(t, tc.status, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestDetailsOf(t *testing.T) {
	err := Validation("invalid payload", "name is required", "participants is required")
	require.Equal(t, []string{"name is required", "participants is required"}, DetailsOf(err))
	require.Nil(t, DetailsOf(errors.New("plain")))
}
