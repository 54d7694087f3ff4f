package database

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisPingsServer(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr()+"/0", zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Set(context.Background(), "alumni:probe", "1", 0).Err())
	require.True(t, server.Exists("alumni:probe"))
}

func TestConnectRedisRejectsBadInput(t *testing.T) {
	logger := zerolog.New(io.Discard)

	_, err := ConnectRedis(context.Background(), " ", logger)
	require.ErrorContains(t, err, "must not be empty")

	_, err = ConnectRedis(context.Background(), "http://localhost:6379", logger)
	require.ErrorContains(t, err, "parse redis url")
}

func TestConnectPostgresRequiresDSN(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "", PoolOptions{}, zerolog.New(io.Discard))
	require.ErrorContains(t, err, "dsn must not be empty")
}
