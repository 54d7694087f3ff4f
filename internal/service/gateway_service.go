package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

// GatewayOptions tunes per-connection behaviour.
type GatewayOptions struct {
	SendBuffer    int
	PingInterval  time.Duration
	EventTimeout  time.Duration
	// MessageLimit caps send_message events per user in each MessageWindow.
	MessageLimit  int
	MessageWindow time.Duration
}

// GatewayDeps groups the collaborators of the socket gateway.
type GatewayDeps struct {
	Hub           *realtime.Hub
	Bus           realtime.Broadcaster
	Presence      *realtime.Presence
	Users         repository.UserRepository
	Chats         ChatService
	Notifications NotificationService
	Forums        ForumService
	Signals       SignalRelay
	ParseToken    middleware.TokenParser
}

// GatewayService owns the lifecycle of live connections.
type GatewayService interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
	Serve(ctx context.Context, conn realtime.Conn, user models.User)
	Subscribe(userID uint) (*realtime.Client, func())
	Presence(ctx context.Context, userID uint) (dto.PresenceResponse, error)
}

type gatewayService struct {
	hub           *realtime.Hub
	bus           realtime.Broadcaster
	presence      *realtime.Presence
	users         repository.UserRepository
	chats         ChatService
	notifications NotificationService
	forums        ForumService
	signals       SignalRelay
	parseToken    middleware.TokenParser
	sendLimiter   *realtime.WindowLimiter
	options       GatewayOptions
	logger        zerolog.Logger
	now           func() time.Time
}

// NewGatewayService constructs the socket gateway.
func NewGatewayService(deps GatewayDeps, options GatewayOptions, logger zerolog.Logger) GatewayService {
	if options.SendBuffer <= 0 {
		options.SendBuffer = 64
	}
	if options.PingInterval <= 0 {
		options.PingInterval = 30 * time.Second
	}
	if options.EventTimeout <= 0 {
		options.EventTimeout = 10 * time.Second
	}

	return &gatewayService{
		hub:           deps.Hub,
		bus:           deps.Bus,
		presence:      deps.Presence,
		users:         deps.Users,
		chats:         deps.Chats,
		notifications: deps.Notifications,
		forums:        deps.Forums,
		signals:       deps.Signals,
		parseToken:    deps.ParseToken,
		sendLimiter:   realtime.NewWindowLimiter(options.MessageLimit, options.MessageWindow),
		options:       options,
		logger:        logger.With().Str("component", "socket_gateway").Logger(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Authenticate resolves a handshake token into an active user.
func (s *gatewayService) Authenticate(ctx context.Context, token string) (models.User, error) {
	if strings.TrimSpace(token) == "" {
		return models.User{}, apperror.Auth("token missing")
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return models.User{}, apperror.Auth("token invalid")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return models.User{}, apperror.Auth("user not found")
		}
		return models.User{}, err
	}
	if !user.Active {
		return models.User{}, apperror.Auth("user inactive")
	}
	return user, nil
}

// Serve runs the connection until the peer goes away. Inbound events are
// handled one at a time in arrival order. conn is not touched once Serve
// returns.
func (s *gatewayService) Serve(ctx context.Context, conn realtime.Conn, user models.User) {
	if ctx == nil {
		ctx = context.Background()
	}

	client := realtime.NewClient(dto.NewPublicUser(user), user.Role, s.options.SendBuffer)
	logger := s.logger.With().
		Uint("user_id", client.UserID).
		Str("client_id", client.ID).
		Str("correlation_id", middleware.CorrelationIDFromContext(ctx)).
		Logger()

	s.attach(ctx, client)
	client.Send(realtime.Event{
		Type: realtime.OutboundConnected,
		Data: dto.ConnectedEvent{
			ClientID: client.ID,
			User:     client.Profile,
			Channels: s.hub.ChannelsOf(client),
		},
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		client.WritePump(conn, s.options.PingInterval, logger)
		_ = conn.Close()
	}()
	defer func() {
		s.detach(client)
		_ = conn.Close()
		<-writerDone
	}()

	logger.Info().Msg("socket connected")
	s.readLoop(ctx, conn, client, logger)
	logger.Info().Msg("socket disconnected")
}

func (s *gatewayService) readLoop(ctx context.Context, conn realtime.Conn, client *realtime.Client, logger zerolog.Logger) {
	for {
		var event realtime.InboundEvent
		if err := conn.ReadJSON(&event); err != nil {
			if isDecodeError(err) {
				s.reply(client, realtime.InboundEvent{}, apperror.Validation("malformed event"))
				observability.InboundEvents().WithLabelValues("malformed", string(apperror.KindValidation)).Inc()
				continue
			}
			logger.Debug().Err(err).Msg("socket read loop terminated")
			return
		}

		select {
		case <-client.Done():
			return
		default:
		}

		s.dispatch(ctx, client, event)
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func (s *gatewayService) dispatch(parent context.Context, client *realtime.Client, event realtime.InboundEvent) {
	ctx, cancel := context.WithTimeout(parent, s.options.EventTimeout)
	defer cancel()

	label := string(event.Type)
	if !event.Type.Valid() {
		label = "unknown"
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Interface("panic", r).
				Str("event", label).
				Uint("user_id", client.UserID).
				Msg("socket event handler panicked")
			s.reply(client, event, errors.New("internal error"))
			observability.InboundEvents().WithLabelValues(label, "panic").Inc()
		}
	}()

	var err error
	switch event.Type {
	case realtime.InboundJoinChat:
		err = s.joinChat(ctx, client, event.ChatID)
	case realtime.InboundLeaveChat:
		err = s.leaveChat(ctx, client, event.ChatID)
	case realtime.InboundJoinForum:
		err = s.joinForum(ctx, client, event.ForumID)
	case realtime.InboundLeaveForum:
		err = s.leaveForum(ctx, client, event.ForumID)
	case realtime.InboundSendMessage:
		err = s.sendMessage(ctx, client, event)
	case realtime.InboundTypingStart:
		err = s.typing(ctx, client, event.ChatID, true)
	case realtime.InboundTypingStop:
		err = s.typing(ctx, client, event.ChatID, false)
	case realtime.InboundMarkNotificationRead:
		err = s.markNotificationRead(ctx, client, event.NotificationID)
	default:
		err = apperror.Validation(fmt.Sprintf("unknown event type %q", event.Type))
	}

	outcome := "ok"
	if err != nil {
		outcome = string(apperror.KindOf(err))
		if outcome == "" {
			outcome = "internal"
		}
		s.reply(client, event, err)
	}
	observability.InboundEvents().WithLabelValues(label, outcome).Inc()
}

// reply sends a failure back to the originating connection only.
func (s *gatewayService) reply(client *realtime.Client, event realtime.InboundEvent, err error) {
	kind := realtime.OutboundError
	if event.Type == realtime.InboundSendMessage {
		kind = realtime.OutboundMessageError
	}

	code := string(apperror.KindOf(err))
	message := "internal error"
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Kind == apperror.KindTransient {
			message = "service temporarily unavailable"
		}
		if len(appErr.Details) > 0 {
			message = fmt.Sprintf("%s: %s", message, strings.Join(appErr.Details, "; "))
		}
	}
	if code == "" {
		code = "INTERNAL"
		s.logger.Error().Err(err).Str("event", string(event.Type)).Uint("user_id", client.UserID).Msg("socket event failed")
	}

	client.Send(realtime.Event{
		Type: kind,
		Data: realtime.ErrorPayload{
			Code:      code,
			Message:   message,
			Event:     string(event.Type),
			RequestID: event.RequestID,
		},
	})
}

func (s *gatewayService) joinChat(ctx context.Context, client *realtime.Client, chatID uint) error {
	if chatID == 0 {
		return apperror.Validation("chat_id is required")
	}
	if err := s.chats.CanAccess(ctx, chatID, client.UserID); err != nil {
		return err
	}

	channel := realtime.ChatChannel(chatID)
	if !s.hub.Join(client, channel) {
		return nil
	}
	observability.ChannelJoins().WithLabelValues(realtime.ChannelKind(channel)).Inc()

	s.bus.Broadcast(ctx, channel, realtime.Event{
		Type: realtime.OutboundUserJoinedChat,
		Data: dto.ChatMembershipEvent{ChatID: chatID, User: client.Profile},
	}, realtime.BroadcastOptions{ExceptClient: client})
	return nil
}

func (s *gatewayService) leaveChat(ctx context.Context, client *realtime.Client, chatID uint) error {
	if chatID == 0 {
		return apperror.Validation("chat_id is required")
	}
	channel := realtime.ChatChannel(chatID)
	if !s.hub.Leave(client, channel) {
		return nil
	}
	s.announceLeave(ctx, client, channel)
	return nil
}

func (s *gatewayService) joinForum(ctx context.Context, client *realtime.Client, forumID uint) error {
	if forumID == 0 {
		return apperror.Validation("forum_id is required")
	}
	if err := s.forums.ThreadExists(ctx, forumID); err != nil {
		return err
	}

	channel := realtime.ForumChannel(forumID)
	if !s.hub.Join(client, channel) {
		return nil
	}
	observability.ChannelJoins().WithLabelValues(realtime.ChannelKind(channel)).Inc()

	user := client.Profile
	s.bus.Broadcast(ctx, channel, realtime.Event{
		Type: realtime.OutboundForumUpdate,
		Data: dto.ForumUpdateEvent{ForumID: forumID, Action: dto.ForumActionMemberJoined, User: &user},
	}, realtime.BroadcastOptions{ExceptClient: client})
	return nil
}

func (s *gatewayService) leaveForum(ctx context.Context, client *realtime.Client, forumID uint) error {
	if forumID == 0 {
		return apperror.Validation("forum_id is required")
	}
	channel := realtime.ForumChannel(forumID)
	if !s.hub.Leave(client, channel) {
		return nil
	}
	s.announceLeave(ctx, client, channel)
	return nil
}

// announceLeave tells the remaining members of channel that client is gone.
func (s *gatewayService) announceLeave(ctx context.Context, client *realtime.Client, channel string) {
	kind, id, ok := realtime.ParseChannel(channel)
	if !ok {
		return
	}

	var event realtime.Event
	switch {
	case realtime.IsChatChannel(channel):
		event = realtime.Event{
			Type: realtime.OutboundUserLeftChat,
			Data: dto.ChatMembershipEvent{ChatID: id, User: client.Profile},
		}
	case realtime.IsForumChannel(channel):
		user := client.Profile
		event = realtime.Event{
			Type: realtime.OutboundForumUpdate,
			Data: dto.ForumUpdateEvent{ForumID: id, Action: dto.ForumActionMemberLeft, User: &user},
		}
	default:
		s.logger.Debug().Str("channel_kind", kind).Msg("no leave announcement for channel")
		return
	}

	s.bus.Broadcast(ctx, channel, event, realtime.BroadcastOptions{ExceptClient: client})
}

func (s *gatewayService) sendMessage(ctx context.Context, client *realtime.Client, event realtime.InboundEvent) error {
	if event.ChatID == 0 {
		return apperror.Validation("chat_id is required")
	}
	if !s.sendLimiter.Allow(client.UserID) {
		return apperror.RateLimited("too many messages")
	}

	_, err := s.chats.SendMessage(ctx, event.ChatID, client.UserID, dto.SendMessageRequest{
		Content:   event.Content,
		Type:      event.MessageType,
		ReplyToID: event.ReplyTo,
		FileURL:   event.FileURL,
		FileName:  event.FileName,
		FileSize:  event.FileSize,
		MimeType:  event.MimeType,
	})
	return err
}

func (s *gatewayService) typing(ctx context.Context, client *realtime.Client, chatID uint, isTyping bool) error {
	if chatID == 0 {
		return apperror.Validation("chat_id is required")
	}
	if !s.hub.IsMember(client, realtime.ChatChannel(chatID)) {
		return apperror.Forbidden("join the chat before sending typing signals")
	}
	s.signals.SetTyping(ctx, chatID, client.Profile, isTyping)
	return nil
}

func (s *gatewayService) markNotificationRead(ctx context.Context, client *realtime.Client, notificationID uint) error {
	if notificationID == 0 {
		return apperror.Validation("notification_id is required")
	}
	_, err := s.notifications.MarkRead(ctx, notificationID, client.UserID)
	return err
}

// attach joins the personal channel and records presence.
func (s *gatewayService) attach(ctx context.Context, client *realtime.Client) {
	channel := realtime.PersonalChannel(client.UserID)
	if s.hub.Join(client, channel) {
		observability.ChannelJoins().WithLabelValues(realtime.ChannelKind(channel)).Inc()
	}

	observability.SocketConnections().WithLabelValues("accepted").Inc()
	observability.SocketConnectionsActive().Inc()

	if s.presence.Connect(client.UserID) {
		s.mirrorPresence(ctx, client.UserID, true)
	}
	observability.UsersOnline().Set(float64(len(s.presence.OnlineUsers())))
}

// detach drops every membership of client and announces the departures.
func (s *gatewayService) detach(client *realtime.Client) {
	client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.options.EventTimeout)
	defer cancel()

	for _, channel := range s.hub.Disconnect(client) {
		s.announceLeave(ctx, client, channel)
	}

	observability.SocketConnectionsActive().Dec()
	if s.presence.Disconnect(client.UserID) {
		s.mirrorPresence(ctx, client.UserID, false)
	}
	observability.UsersOnline().Set(float64(len(s.presence.OnlineUsers())))
}

func (s *gatewayService) mirrorPresence(ctx context.Context, userID uint, online bool) {
	if err := s.users.UpdatePresence(ctx, userID, online, s.now()); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", userID).Bool("online", online).Msg("failed to persist presence")
	}
}

// Subscribe attaches a stream-only client to the user's personal channel.
// The returned cleanup must be called once the stream ends.
func (s *gatewayService) Subscribe(userID uint) (*realtime.Client, func()) {
	client := realtime.NewClient(dto.PublicUser{ID: userID}, "", s.options.SendBuffer)
	s.hub.Join(client, realtime.PersonalChannel(userID))
	observability.SSEClientsActive().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			client.Close()
			s.hub.Disconnect(client)
			observability.SSEClientsActive().Dec()
		})
	}
	return client, cleanup
}

// Presence reports whether userID holds a live connection and when they were last seen.
func (s *gatewayService) Presence(ctx context.Context, userID uint) (dto.PresenceResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return dto.PresenceResponse{}, err
	}

	response := dto.PresenceResponse{UserID: userID, Online: s.presence.IsOnline(userID)}
	if seen, ok := s.presence.LastSeen(userID); ok {
		response.LastSeenAt = &seen
	} else if user.LastSeenAt != nil {
		seen := user.LastSeenAt.UTC()
		response.LastSeenAt = &seen
	}
	return response, nil
}
