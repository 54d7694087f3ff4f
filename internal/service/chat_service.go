package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/alumni-connect-api/internal/apperror"
	"github.com/noah-isme/alumni-connect-api/internal/dto"
	"github.com/noah-isme/alumni-connect-api/internal/middleware"
	"github.com/noah-isme/alumni-connect-api/internal/models"
	"github.com/noah-isme/alumni-connect-api/internal/observability"
	"github.com/noah-isme/alumni-connect-api/internal/realtime"
	"github.com/noah-isme/alumni-connect-api/internal/repository"
)

// ChatListOptions narrows ListChats.
type ChatListOptions struct {
	Page            int
	Limit           int
	IncludeArchived bool
}

// ChatService couples chat persistence with live channel fan-out.
type ChatService interface {
	CreateDirectChat(ctx context.Context, userA, userB uint) (dto.ChatResponse, bool, error)
	CreateGroupChat(ctx context.Context, creatorID uint, name string, participantIDs []uint, opts dto.GroupChatOptions) (dto.ChatResponse, error)
	GetChat(ctx context.Context, chatID, userID uint) (dto.ChatResponse, error)
	ListChats(ctx context.Context, userID uint, opts ChatListOptions) (dto.ChatListResponse, error)
	CanAccess(ctx context.Context, chatID, userID uint) error
	GetMessages(ctx context.Context, chatID, userID uint, page, limit int) (dto.MessageListResponse, error)
	SendMessage(ctx context.Context, chatID, senderID uint, req dto.SendMessageRequest) (dto.MessageResponse, error)
	EditMessage(ctx context.Context, messageID, userID uint, content string) (dto.MessageResponse, error)
	SoftDeleteMessage(ctx context.Context, messageID, requesterID uint) (dto.MessageDeletedEvent, error)
	AddReaction(ctx context.Context, messageID, userID uint, emoji string) (dto.ReactionResult, error)
	ToggleReaction(ctx context.Context, messageID, userID uint, emoji string) (dto.ReactionResult, error)
	MarkRead(ctx context.Context, chatID, userID uint) (dto.MarkReadResponse, error)
	AddParticipants(ctx context.Context, chatID, actorID uint, userIDs []uint) (dto.ChatResponse, error)
	RemoveParticipant(ctx context.Context, chatID, actorID, userID uint) (dto.ChatResponse, error)
	SetArchived(ctx context.Context, chatID, userID uint, archived bool) (dto.ChatResponse, error)
}

type chatService struct {
	chats     repository.ChatRepository
	messages  repository.MessageRepository
	users     repository.UserRepository
	bus       realtime.Broadcaster
	evictor   realtime.Evictor
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer textSanitizer
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewChatService creates the message relay.
func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	bus realtime.Broadcaster,
	activity ActivityRecorder,
	validate *validator.Validate,
	logger zerolog.Logger,
) ChatService {
	service := &chatService{
		chats:     chats,
		messages:  messages,
		users:     users,
		bus:       bus,
		activity:  activity,
		validator: validate,
		sanitizer: newTextSanitizer(),
		logger:    logger.With().Str("component", "chat_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/alumni-connect-api/internal/service/chat"),
		now:       func() time.Time { return time.Now().UTC() },
	}
	if evictor, ok := bus.(realtime.Evictor); ok {
		service.evictor = evictor
	}
	return service
}

func (s *chatService) CreateDirectChat(ctx context.Context, userA, userB uint) (dto.ChatResponse, bool, error) {
	if userA == 0 || userB == 0 {
		return dto.ChatResponse{}, false, apperror.Validation("participant is required")
	}
	if userA == userB {
		return dto.ChatResponse{}, false, apperror.Validation("cannot start a direct chat with yourself")
	}

	users, err := s.users.FindByIDs(ctx, []uint{userA, userB})
	if err != nil {
		return dto.ChatResponse{}, false, err
	}
	if len(users) != 2 {
		return dto.ChatResponse{}, false, apperror.NotFound("user not found")
	}

	key := models.DirectChatKey(userA, userB)
	existing, err := s.chats.FindDirectByKey(ctx, key)
	if err == nil {
		return dto.NewChatResponse(existing), false, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return dto.ChatResponse{}, false, err
	}

	now := s.now()
	chat := models.Chat{
		Type:      models.ChatTypeDirect,
		DirectKey: &key,
		CreatedBy: userA,
		Participants: []models.ChatParticipant{
			{UserID: userA, Role: models.ParticipantRoleMember, JoinedAt: now},
			{UserID: userB, Role: models.ParticipantRoleMember, JoinedAt: now},
		},
	}
	if err := s.chats.Create(ctx, &chat); err != nil {
		// A concurrent request may have won the unique key.
		if existing, findErr := s.chats.FindDirectByKey(ctx, key); findErr == nil {
			return dto.NewChatResponse(existing), false, nil
		}
		return dto.ChatResponse{}, false, err
	}

	created, err := s.chats.FindByID(ctx, chat.ID)
	if err != nil {
		return dto.ChatResponse{}, false, err
	}
	s.logger.Info().Uint("chat_id", chat.ID).Uint("user_a", userA).Uint("user_b", userB).Msg("direct chat created")
	return dto.NewChatResponse(created), true, nil
}

func (s *chatService) CreateGroupChat(ctx context.Context, creatorID uint, name string, participantIDs []uint, opts dto.GroupChatOptions) (dto.ChatResponse, error) {
	name = s.sanitizer.Clean(name)
	if name == "" {
		return dto.ChatResponse{}, apperror.Validation("name is required")
	}
	members := dedupeIDs(participantIDs, creatorID)
	if len(members) == 0 {
		return dto.ChatResponse{}, apperror.Validation("participants are required")
	}

	users, err := s.users.FindByIDs(ctx, append([]uint{creatorID}, members...))
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if len(users) != len(members)+1 {
		return dto.ChatResponse{}, apperror.NotFound("one or more users not found")
	}

	now := s.now()
	participants := make([]models.ChatParticipant, 0, len(members)+1)
	participants = append(participants, models.ChatParticipant{UserID: creatorID, Role: models.ParticipantRoleAdmin, JoinedAt: now})
	for _, id := range members {
		participants = append(participants, models.ChatParticipant{UserID: id, Role: models.ParticipantRoleMember, JoinedAt: now})
	}

	chat := models.Chat{
		Type:         models.ChatTypeGroup,
		Name:         name,
		Description:  s.sanitizer.Clean(opts.Description),
		CreatedBy:    creatorID,
		IsPrivate:    opts.IsPrivate,
		Participants: participants,
	}
	if err := s.chats.Create(ctx, &chat); err != nil {
		return dto.ChatResponse{}, err
	}

	created, err := s.chats.FindByID(ctx, chat.ID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	return dto.NewChatResponse(created), nil
}

func (s *chatService) GetChat(ctx context.Context, chatID, userID uint) (dto.ChatResponse, error) {
	chat, _, err := s.loadChatForUser(ctx, chatID, userID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	return s.chatResponse(ctx, chat), nil
}

func (s *chatService) ListChats(ctx context.Context, userID uint, opts ChatListOptions) (dto.ChatListResponse, error) {
	chats, total, err := s.chats.ListForUser(ctx, userID, repository.ChatListFilter{
		Page:            opts.Page,
		Limit:           opts.Limit,
		IncludeArchived: opts.IncludeArchived,
	})
	if err != nil {
		return dto.ChatListResponse{}, err
	}

	items := make([]dto.ChatResponse, 0, len(chats))
	for _, chat := range chats {
		items = append(items, s.chatResponse(ctx, chat))
	}
	page, limit := pageWindow(opts.Page, opts.Limit, 20)
	return dto.ChatListResponse{Items: items, Pagination: dto.NewPaginationMeta(page, limit, total)}, nil
}

func (s *chatService) CanAccess(ctx context.Context, chatID, userID uint) error {
	_, _, err := s.loadChatForUser(ctx, chatID, userID)
	return err
}

func (s *chatService) GetMessages(ctx context.Context, chatID, userID uint, page, limit int) (dto.MessageListResponse, error) {
	if _, _, err := s.loadChatForUser(ctx, chatID, userID); err != nil {
		return dto.MessageListResponse{}, err
	}

	messages, total, err := s.messages.ListByChat(ctx, chatID, page, limit)
	if err != nil {
		return dto.MessageListResponse{}, err
	}
	page, limit = pageWindow(page, limit, 50)
	return dto.MessageListResponse{
		Items:      dto.NewMessageResponseSlice(messages),
		Pagination: dto.NewPaginationMeta(page, limit, total),
	}, nil
}

// SendMessage checks existence, then membership, then payload, persists the
// message, advances the chat summary and broadcasts new_message to the chat
// channel, sender's own connections included.
func (s *chatService) SendMessage(ctx context.Context, chatID, senderID uint, req dto.SendMessageRequest) (dto.MessageResponse, error) {
	spanCtx, span := s.tracer.Start(ctx, "chat.send_message", trace.WithAttributes(
		attribute.Int64("chat.id", int64(chatID)),
		attribute.Int64("chat.sender_id", int64(senderID)),
	))
	defer span.End()

	chat, participant, err := s.loadChatForUser(spanCtx, chatID, senderID)
	if err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	model, err := s.buildMessage(spanCtx, chat, senderID, req)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	span.SetAttributes(attribute.String("chat.message_type", model.Type))

	if err := s.messages.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Uint("chat_id", chatID).Msg("failed to persist message")
		return dto.MessageResponse{}, err
	}

	if _, err := s.chats.UpdateSummary(spanCtx, chat.ID, model.ID, model.CreatedAt); err != nil {
		s.logger.Warn().Err(err).Uint("chat_id", chat.ID).Uint("message_id", model.ID).Msg("failed to update chat summary")
	}

	model.Sender = participant.User
	response := dto.NewMessageResponse(model)
	s.bus.Broadcast(spanCtx, realtime.ChatChannel(chat.ID), realtime.Event{Type: realtime.OutboundNewMessage, Data: response}, realtime.BroadcastOptions{})
	observability.MessagesSent().WithLabelValues(model.Type).Inc()

	if chat.IsDirect() && s.activity != nil {
		s.activity.RecordAsync(ActivityEntry{
			ActorID:       senderID,
			ActorRole:     participantRole(participant),
			Action:        ActivityActionDirectMessage,
			EntityType:    ActivityEntityChat,
			EntityID:      &chat.ID,
			CorrelationID: middleware.CorrelationIDFromContext(ctx),
			Metadata: map[string]interface{}{
				"message_id":   model.ID,
				"recipient_id": otherParticipant(chat, senderID),
				"message_type": model.Type,
			},
		})
	}

	return response, nil
}

func (s *chatService) buildMessage(ctx context.Context, chat models.Chat, senderID uint, req dto.SendMessageRequest) (models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Message{}, validationError(err)
	}

	messageType := strings.ToLower(strings.TrimSpace(req.Type))
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	if messageType == models.MessageTypeSystem {
		return models.Message{}, apperror.Validation("system messages cannot be sent by users")
	}

	content := s.sanitizer.Clean(req.Content)
	fileURL := strings.TrimSpace(req.FileURL)
	if messageType == models.MessageTypeText && content == "" {
		return models.Message{}, apperror.Validation("message content is required")
	}
	if messageType != models.MessageTypeText && fileURL == "" {
		return models.Message{}, apperror.Validation(fmt.Sprintf("file_url is required for %s messages", messageType))
	}

	if req.ReplyToID != nil {
		target, err := s.messages.FindByID(ctx, *req.ReplyToID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return models.Message{}, apperror.Validation("reply target not found")
			}
			return models.Message{}, err
		}
		if target.ChatID != chat.ID {
			return models.Message{}, apperror.Validation("reply target belongs to another chat")
		}
	}

	return models.Message{
		ChatID:    chat.ID,
		SenderID:  senderID,
		Content:   content,
		Type:      messageType,
		FileURL:   fileURL,
		FileName:  strings.TrimSpace(req.FileName),
		FileSize:  req.FileSize,
		MimeType:  strings.TrimSpace(req.MimeType),
		ReplyToID: req.ReplyToID,
		CreatedAt: s.now(),
	}, nil
}

func (s *chatService) EditMessage(ctx context.Context, messageID, userID uint, content string) (dto.MessageResponse, error) {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	if message.SenderID != userID {
		return dto.MessageResponse{}, apperror.Forbidden("only the sender can edit this message")
	}
	if _, _, err := s.loadChatForUser(ctx, message.ChatID, userID); err != nil {
		return dto.MessageResponse{}, err
	}
	if message.IsDeleted {
		return dto.MessageResponse{}, apperror.Validation("deleted messages cannot be edited")
	}
	if message.Type != models.MessageTypeText {
		return dto.MessageResponse{}, apperror.Validation("only text messages can be edited")
	}

	clean := s.sanitizer.Clean(content)
	if clean == "" {
		return dto.MessageResponse{}, apperror.Validation("message content is required")
	}

	if err := s.messages.UpdateContent(ctx, messageID, clean, s.now()); err != nil {
		return dto.MessageResponse{}, err
	}
	updated, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return dto.MessageResponse{}, err
	}

	response := dto.NewMessageResponse(updated)
	s.bus.Broadcast(ctx, realtime.ChatChannel(updated.ChatID), realtime.Event{Type: realtime.OutboundMessageEdited, Data: response}, realtime.BroadcastOptions{})
	return response, nil
}

// SoftDeleteMessage keeps the row and replaces its content with a placeholder.
func (s *chatService) SoftDeleteMessage(ctx context.Context, messageID, requesterID uint) (dto.MessageDeletedEvent, error) {
	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return dto.MessageDeletedEvent{}, err
	}
	if message.SenderID != requesterID {
		return dto.MessageDeletedEvent{}, apperror.Forbidden("only the sender can delete this message")
	}

	event := dto.MessageDeletedEvent{ID: message.ID, ChatID: message.ChatID}
	if message.IsDeleted {
		return event, nil
	}

	if err := s.messages.SoftDelete(ctx, messageID, s.now()); err != nil {
		return dto.MessageDeletedEvent{}, err
	}
	s.bus.Broadcast(ctx, realtime.ChatChannel(message.ChatID), realtime.Event{Type: realtime.OutboundMessageDeleted, Data: event}, realtime.BroadcastOptions{})
	return event, nil
}

// AddReaction is idempotent per (message, user, emoji); only a new row is broadcast.
func (s *chatService) AddReaction(ctx context.Context, messageID, userID uint, emoji string) (dto.ReactionResult, error) {
	message, user, emoji, err := s.reactionTarget(ctx, messageID, userID, emoji)
	if err != nil {
		return dto.ReactionResult{}, err
	}
	return s.addReaction(ctx, message, user, emoji)
}

// ToggleReaction removes the reaction when present, otherwise adds it.
func (s *chatService) ToggleReaction(ctx context.Context, messageID, userID uint, emoji string) (dto.ReactionResult, error) {
	message, user, emoji, err := s.reactionTarget(ctx, messageID, userID, emoji)
	if err != nil {
		return dto.ReactionResult{}, err
	}

	removed, err := s.messages.RemoveReaction(ctx, message.ID, userID, emoji)
	if err != nil {
		return dto.ReactionResult{}, err
	}
	if !removed {
		return s.addReaction(ctx, message, user, emoji)
	}

	s.bus.Broadcast(ctx, realtime.ChatChannel(message.ChatID), realtime.Event{
		Type: realtime.OutboundReactionRemoved,
		Data: dto.ReactionEvent{MessageID: message.ID, ChatID: message.ChatID, User: user, Emoji: emoji},
	}, realtime.BroadcastOptions{})
	return dto.ReactionResult{MessageID: message.ID, Emoji: emoji, Active: false}, nil
}

func (s *chatService) addReaction(ctx context.Context, message models.Message, user dto.PublicUser, emoji string) (dto.ReactionResult, error) {
	created, err := s.messages.AddReaction(ctx, &models.MessageReaction{
		MessageID: message.ID,
		UserID:    user.ID,
		Emoji:     emoji,
		CreatedAt: s.now(),
	})
	if err != nil {
		return dto.ReactionResult{}, err
	}
	if created {
		s.bus.Broadcast(ctx, realtime.ChatChannel(message.ChatID), realtime.Event{
			Type: realtime.OutboundReactionAdded,
			Data: dto.ReactionEvent{MessageID: message.ID, ChatID: message.ChatID, User: user, Emoji: emoji},
		}, realtime.BroadcastOptions{})
	}
	return dto.ReactionResult{MessageID: message.ID, Emoji: emoji, Active: true}, nil
}

func (s *chatService) reactionTarget(ctx context.Context, messageID, userID uint, emoji string) (models.Message, dto.PublicUser, string, error) {
	emoji = strings.TrimSpace(emoji)
	if err := s.validator.Var(emoji, "required,max=32"); err != nil {
		return models.Message{}, dto.PublicUser{}, "", apperror.Validation("emoji is required")
	}

	message, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		return models.Message{}, dto.PublicUser{}, "", err
	}
	_, participant, err := s.loadChatForUser(ctx, message.ChatID, userID)
	if err != nil {
		return models.Message{}, dto.PublicUser{}, "", err
	}
	if message.IsDeleted {
		return models.Message{}, dto.PublicUser{}, "", apperror.Validation("cannot react to a deleted message")
	}
	return message, participantProfile(participant), emoji, nil
}

// MarkRead records receipts for unread messages authored by others; it does not broadcast.
func (s *chatService) MarkRead(ctx context.Context, chatID, userID uint) (dto.MarkReadResponse, error) {
	if _, _, err := s.loadChatForUser(ctx, chatID, userID); err != nil {
		return dto.MarkReadResponse{}, err
	}

	now := s.now()
	marked, err := s.messages.MarkChatRead(ctx, chatID, userID, now)
	if err != nil {
		return dto.MarkReadResponse{}, err
	}
	if err := s.chats.TouchParticipant(ctx, chatID, userID, now); err != nil {
		return dto.MarkReadResponse{}, err
	}
	return dto.MarkReadResponse{ChatID: chatID, Marked: marked}, nil
}

func (s *chatService) AddParticipants(ctx context.Context, chatID, actorID uint, userIDs []uint) (dto.ChatResponse, error) {
	chat, actor, err := s.loadChatForUser(ctx, chatID, actorID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if chat.IsDirect() {
		return dto.ChatResponse{}, apperror.Validation("participants can only be added to group chats")
	}
	if actor.Role != models.ParticipantRoleAdmin {
		return dto.ChatResponse{}, apperror.Forbidden("only chat admins can add participants")
	}

	candidates := make([]uint, 0, len(userIDs))
	for _, id := range dedupeIDs(userIDs, 0) {
		if _, active := chat.ActiveParticipant(id); !active {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return dto.ChatResponse{}, apperror.Validation("no new participants to add")
	}

	users, err := s.users.FindByIDs(ctx, candidates)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if len(users) != len(candidates) {
		return dto.ChatResponse{}, apperror.NotFound("one or more users not found")
	}

	now := s.now()
	participants := make([]models.ChatParticipant, 0, len(candidates))
	for _, id := range candidates {
		participants = append(participants, models.ChatParticipant{UserID: id, Role: models.ParticipantRoleMember, JoinedAt: now})
	}
	if err := s.chats.AddParticipants(ctx, chatID, participants); err != nil {
		return dto.ChatResponse{}, err
	}

	updated, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	return dto.NewChatResponse(updated), nil
}

// RemoveParticipant lets admins remove anyone and members remove themselves.
// The removed user's live connections are evicted from the chat channel.
func (s *chatService) RemoveParticipant(ctx context.Context, chatID, actorID, userID uint) (dto.ChatResponse, error) {
	chat, actor, err := s.loadChatForUser(ctx, chatID, actorID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if chat.IsDirect() {
		return dto.ChatResponse{}, apperror.Validation("participants cannot leave direct chats")
	}
	if actorID != userID && actor.Role != models.ParticipantRoleAdmin {
		return dto.ChatResponse{}, apperror.Forbidden("only chat admins can remove other participants")
	}
	target, active := chat.ActiveParticipant(userID)
	if !active {
		return dto.ChatResponse{}, apperror.NotFound("participant not found")
	}

	if err := s.chats.RemoveParticipant(ctx, chatID, userID, s.now()); err != nil {
		return dto.ChatResponse{}, err
	}

	channel := realtime.ChatChannel(chatID)
	if s.evictor != nil {
		s.evictor.RemoveUser(channel, userID)
	}
	s.bus.Broadcast(ctx, channel, realtime.Event{
		Type: realtime.OutboundUserLeftChat,
		Data: dto.ChatMembershipEvent{ChatID: chatID, User: participantProfile(target)},
	}, realtime.BroadcastOptions{ExceptUserID: userID})

	updated, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	return dto.NewChatResponse(updated), nil
}

func (s *chatService) SetArchived(ctx context.Context, chatID, userID uint, archived bool) (dto.ChatResponse, error) {
	if _, _, err := s.loadChatForUser(ctx, chatID, userID); err != nil {
		return dto.ChatResponse{}, err
	}
	if err := s.chats.SetArchived(ctx, chatID, archived); err != nil {
		return dto.ChatResponse{}, err
	}
	updated, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	return dto.NewChatResponse(updated), nil
}

func (s *chatService) loadChatForUser(ctx context.Context, chatID, userID uint) (models.Chat, models.ChatParticipant, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		return models.Chat{}, models.ChatParticipant{}, err
	}
	participant, ok := chat.ActiveParticipant(userID)
	if !ok {
		return models.Chat{}, models.ChatParticipant{}, apperror.Forbidden("not a participant of this chat")
	}
	return chat, participant, nil
}

func (s *chatService) chatResponse(ctx context.Context, chat models.Chat) dto.ChatResponse {
	response := dto.NewChatResponse(chat)
	if chat.LastMessageID == nil {
		return response
	}
	last, err := s.messages.FindByID(ctx, *chat.LastMessageID)
	if err != nil {
		s.logger.Debug().Err(err).Uint("chat_id", chat.ID).Msg("last message unavailable")
		return response
	}
	lastResponse := dto.NewMessageResponse(last)
	response.LastMessage = &lastResponse
	return response
}

func participantProfile(participant models.ChatParticipant) dto.PublicUser {
	if participant.User != nil {
		return dto.NewPublicUser(*participant.User)
	}
	return dto.PublicUser{ID: participant.UserID}
}

func participantRole(participant models.ChatParticipant) string {
	if participant.User != nil {
		return participant.User.Role
	}
	return models.UserRoleAlumni
}

func otherParticipant(chat models.Chat, userID uint) uint {
	for _, participant := range chat.Participants {
		if participant.UserID != userID {
			return participant.UserID
		}
	}
	return 0
}
