package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/observability"
)

// Broadcaster fans an event out to the members of a channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel string, event Event, opts BroadcastOptions)
}

// Evictor removes a user's connections from a channel, e.g. after they leave a chat.
type Evictor interface {
	RemoveUser(channel string, userID uint) int
}

// BusConfig selects the cross-node transport. NATS wins when both are set.
type BusConfig struct {
	Redis   *redis.Client
	NATS    *nats.Conn
	Channel string
}

// Bus delivers events to the local hub and relays them to other nodes.
type Bus struct {
	hub          *Hub
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	logger       zerolog.Logger
}

type busEnvelope struct {
	Source       string          `json:"source"`
	Channel      string          `json:"channel"`
	Type         OutboundKind    `json:"type"`
	Data         json.RawMessage `json:"data,omitempty"`
	ExceptUserID uint            `json:"except_user,omitempty"`
	SentAt       time.Time       `json:"sent_at"`
}

// NewBus wires the hub to the configured transport. With neither transport the
// bus only delivers locally.
func NewBus(hub *Hub, cfg BusConfig, logger zerolog.Logger) *Bus {
	base := strings.TrimSpace(cfg.Channel)
	if base == "" {
		base = "alumni:realtime"
	}

	bus := &Bus{
		hub:    hub,
		nodeID: uuid.NewString(),
		logger: logger.With().Str("component", "realtime_bus").Logger(),
	}
	switch {
	case cfg.NATS != nil:
		bus.nats = cfg.NATS
		bus.natsSubject = strings.ReplaceAll(base, ":", ".")
	case cfg.Redis != nil:
		bus.redis = cfg.Redis
		bus.redisChannel = base
	}
	return bus
}

// NodeID identifies this process on the bus.
func (b *Bus) NodeID() string {
	return b.nodeID
}

// Transport names the cross-node transport: "nats", "redis" or "local".
func (b *Bus) Transport() string {
	switch {
	case b.nats != nil:
		return "nats"
	case b.redis != nil:
		return "redis"
	default:
		return "local"
	}
}

// Hub exposes the node-local membership table.
func (b *Bus) Hub() *Hub {
	return b.hub
}

// RemoveUser evicts userID's connections on this node from channel.
func (b *Bus) RemoveUser(channel string, userID uint) int {
	return len(b.hub.RemoveUser(channel, userID))
}

// Broadcast delivers locally, then publishes for other nodes. Publish failures
// are logged and do not affect local delivery.
func (b *Bus) Broadcast(ctx context.Context, channel string, event Event, opts BroadcastOptions) {
	b.hub.Broadcast(channel, event, opts)

	if b.redis == nil && b.nats == nil {
		return
	}
	if err := b.publish(ctx, channel, event, opts.ExceptUserID); err != nil {
		b.logger.Warn().Err(err).Str("channel", channel).Str("event", string(event.Type)).Msg("failed to publish realtime event")
	}
}

func (b *Bus) publish(ctx context.Context, channel string, event Event, exceptUserID uint) error {
	var data json.RawMessage
	if event.Data != nil {
		raw, err := json.Marshal(event.Data)
		if err != nil {
			return err
		}
		data = raw
	}

	payload, err := json.Marshal(busEnvelope{
		Source:       b.nodeID,
		Channel:      channel,
		Type:         event.Type,
		Data:         data,
		ExceptUserID: exceptUserID,
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if b.nats != nil {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			return err
		}
		observability.BusEvents().WithLabelValues("nats", "out").Inc()
		return nil
	}

	if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
		return err
	}
	observability.BusEvents().WithLabelValues("redis", "out").Inc()
	return nil
}

// Start consumes remote events until ctx is cancelled.
func (b *Bus) Start(ctx context.Context) {
	switch {
	case b.nats != nil:
		b.consumeNATS(ctx)
	case b.redis != nil:
		go b.consumeRedis(ctx)
	}
}

func (b *Bus) consumeRedis(ctx context.Context) {
	pubsub := b.redis.Subscribe(ctx, b.redisChannel)
	defer func() {
		_ = pubsub.Close()
	}()
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) {
				return
			}
			b.logger.Error().Err(err).Msg("realtime redis subscription closed")
			return
		}
		observability.BusEvents().WithLabelValues("redis", "in").Inc()
		b.handleEnvelope([]byte(msg.Payload))
	}
}

// Every node must see every event, so the subscription is not queue-grouped.
func (b *Bus) consumeNATS(ctx context.Context) {
	sub, err := b.nats.Subscribe(b.natsSubject, func(msg *nats.Msg) {
		observability.BusEvents().WithLabelValues("nats", "in").Inc()
		b.handleEnvelope(msg.Data)
	})
	if err != nil {
		b.logger.Error().Err(err).Msg("failed to subscribe to nats realtime subject")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain realtime nats subscription")
		}
	}()
}

func (b *Bus) handleEnvelope(data []byte) {
	var envelope busEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		b.logger.Warn().Err(err).Msg("invalid realtime envelope")
		return
	}
	if envelope.Source == b.nodeID || envelope.Channel == "" {
		return
	}

	event := Event{Type: envelope.Type}
	if len(envelope.Data) > 0 {
		event.Data = envelope.Data
	}
	b.hub.Broadcast(envelope.Channel, event, BroadcastOptions{ExceptUserID: envelope.ExceptUserID})
}
