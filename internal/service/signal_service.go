package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
)

// SignalRelay forwards ephemeral signals that are never persisted.
type SignalRelay interface {
	SetTyping(ctx context.Context, chatID uint, user dto.PublicUser, isTyping bool)
}

type signalRelay struct {
	bus    realtime.Broadcaster
	logger zerolog.Logger
}

// NewSignalRelay constructs the typing relay.
func NewSignalRelay(bus realtime.Broadcaster, logger zerolog.Logger) SignalRelay {
	return &signalRelay{
		bus:    bus,
		logger: logger.With().Str("component", "signal_relay").Logger(),
	}
}

// SetTyping broadcasts user_typing to the chat once, skipping every connection of the typist.
func (s *signalRelay) SetTyping(ctx context.Context, chatID uint, user dto.PublicUser, isTyping bool) {
	s.bus.Broadcast(ctx, realtime.ChatChannel(chatID), realtime.Event{
		Type: realtime.OutboundUserTyping,
		Data: dto.TypingEvent{ChatID: chatID, User: user, IsTyping: isTyping},
	}, realtime.BroadcastOptions{ExceptUserID: user.ID})
}
