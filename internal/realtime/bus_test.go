package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBusRelaysEventsAcrossNodesViaRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newNode := func() (*Bus, *redis.Client) {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		return NewBus(NewHub(zerolog.Nop()), BusConfig{Redis: client, Channel: "test:realtime"}, zerolog.Nop()), client
	}

	nodeA, _ := newNode()
	nodeB, _ := newNode()
	require.Equal(t, "redis", nodeA.Transport())
	nodeA.Start(ctx)
	nodeB.Start(ctx)

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("test:realtime")["test:realtime"] == 2
	}, 2*time.Second, 10*time.Millisecond)

	local := newTestClient(1)
	remote := newTestClient(2)
	remoteSender := newTestClient(1)
	nodeA.Hub().Join(local, ChatChannel(4))
	nodeB.Hub().Join(remote, ChatChannel(4))
	nodeB.Hub().Join(remoteSender, ChatChannel(4))

	nodeA.Broadcast(ctx, ChatChannel(4), Event{Type: OutboundUserTyping, Data: map[string]interface{}{"chat_id": 4}}, BroadcastOptions{ExceptUserID: 1})

	var received Event
	require.Eventually(t, func() bool {
		select {
		case received = <-remote.Events():
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, OutboundUserTyping, received.Type)
	raw, ok := received.Data.(json.RawMessage)
	require.True(t, ok)
	require.JSONEq(t, `{"chat_id":4}`, string(raw))

	time.Sleep(50 * time.Millisecond)
	require.Empty(t, drain(local), "sender's own connections are excluded locally")
	require.Empty(t, drain(remoteSender), "exclusion travels with the envelope")
}

func TestBusIgnoresOwnEnvelopes(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	bus := NewBus(hub, BusConfig{}, zerolog.Nop())
	require.Equal(t, "local", bus.Transport())
	client := newTestClient(1)
	hub.Join(client, ChatChannel(1))

	own, err := json.Marshal(busEnvelope{Source: bus.NodeID(), Channel: ChatChannel(1), Type: OutboundNewMessage})
	require.NoError(t, err)
	bus.handleEnvelope(own)
	require.Empty(t, drain(client))

	foreign, err := json.Marshal(busEnvelope{Source: "other-node", Channel: ChatChannel(1), Type: OutboundNewMessage, Data: json.RawMessage(`{"id":1}`)})
	require.NoError(t, err)
	bus.handleEnvelope(foreign)
	events := drain(client)
	require.Len(t, events, 1)
	require.Equal(t, OutboundNewMessage, events[0].Type)

	bus.handleEnvelope([]byte("not json"))
	require.Empty(t, drain(client))
}
