package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/user"
	"openbook-server/internal/repository"
	ob_errors "openbook-server/pkg/errors"
	"openbook-server/pkg/logger"

	"github.com/google/uuid"
)

type ChatService struct {
	chatRepo      repository.ChatRepository
	userRepo      repository.UserRepository
	notifications *NotificationService
	broker        Broker
	logger        *logger.Logger
}

func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository, notifications *NotificationService, broker Broker, l *logger.Logger) *ChatService {
	if broker == nil {
		broker = NopBroker{}
	}
	return &ChatService{
		chatRepo:      chatRepo,
		userRepo:      userRepo,
		notifications: notifications,
		broker:        broker,
		logger:        l,
	}
}

type ChatView struct {
	ID           uuid.UUID      `json:"id"`
	Participants []user.Profile `json:"participants"`
	OtherUser    *user.Profile  `json:"otherUser,omitempty"`
	LastMessage  *MessageView   `json:"lastMessage,omitempty"`
	LastActivity time.Time      `json:"lastActivity"`
	IsActive     bool           `json:"isActive"`
}

type MessageView struct {
	ID             uuid.UUID    `json:"id"`
	ConversationID uuid.UUID    `json:"chatId"`
	Sender         user.Profile `json:"sender"`
	ReceiverID     uuid.UUID    `json:"receiverId"`
	Content        string       `json:"content"`
	Type           string       `json:"messageType"`
	ReadStatus     string       `json:"readStatus"`
	ReplyToID      *uuid.UUID   `json:"replyTo,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// NewMessageEvent is the payload published on the conversation channel
// after a message is durably stored.
type NewMessageEvent struct {
	ChatID  uuid.UUID   `json:"chatId"`
	Message MessageView `json:"message"`
}

// FindOrCreate returns the unique conversation for the unordered pair,
// creating it when absent. The pair-key unique index is the
// serialization point: a concurrent create that loses the race falls
// back to fetching the winner's row.
func (s *ChatService) FindOrCreate(ctx context.Context, userID, otherID uuid.UUID) (ChatView, error) {
	if userID == otherID {
		return ChatView{}, ob_errors.ErrSelfAction
	}
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return ChatView{}, err
	}

	pairKey := chat.PairKey(userID, otherID)
	conv, err := s.chatRepo.GetConversationByPairKey(ctx, pairKey)
	if errors.Is(err, ob_errors.ErrNotFound) {
		conv, err = s.createConversation(ctx, userID, otherID, pairKey)
	}
	if err != nil {
		return ChatView{}, err
	}

	return s.buildChatView(ctx, conv, userID)
}

func (s *ChatService) createConversation(ctx context.Context, userID, otherID uuid.UUID, pairKey string) (chat.Conversation, error) {
	a, b := userID, otherID
	if strings.Compare(a.String(), b.String()) > 0 {
		a, b = b, a
	}
	now := time.Now()
	conv := chat.Conversation{
		ID:           uuid.New(),
		PairKey:      pairKey,
		UserAID:      a,
		UserBID:      b,
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.chatRepo.CreateConversation(ctx, &conv)
	if errors.Is(err, ob_errors.ErrAlreadyExists) {
		// Lost the race against the other participant; reuse their row.
		return s.chatRepo.GetConversationByPairKey(ctx, pairKey)
	}
	if err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

func (s *ChatService) GetByID(ctx context.Context, conversationID uuid.UUID) (chat.Conversation, error) {
	return s.chatRepo.GetConversationByID(ctx, conversationID)
}

// ListForUser returns the caller's active conversations ordered by last
// activity, each with the opposite participant's profile and the last
// message preview.
func (s *ChatService) ListForUser(ctx context.Context, userID uuid.UUID) ([]ChatView, error) {
	conversations, err := s.chatRepo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]ChatView, 0, len(conversations))
	for _, conv := range conversations {
		view, err := s.buildChatView(ctx, conv, userID)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	Type           string
	ReplyToID      *uuid.UUID
}

// SendMessage persists the message first and only then publishes the
// realtime event, so no subscriber can observe a message that is not yet
// durable. The chat_message notification is fire-and-forget.
func (s *ChatService) SendMessage(ctx context.Context, in SendMessageInput) (MessageView, error) {
	conv, err := s.chatRepo.GetConversationByID(ctx, in.ConversationID)
	if err != nil {
		return MessageView{}, err
	}
	receiverID, ok := conv.Other(in.SenderID)
	if !ok {
		return MessageView{}, ob_errors.ErrForbidden
	}

	msgType := in.Type
	if msgType == "" {
		msgType = chat.TypeText
	}
	if msgType != chat.TypeText && msgType != chat.TypeImage && msgType != chat.TypeFile {
		return MessageView{}, ob_errors.ErrInvalidInput
	}
	content := strings.TrimSpace(in.Content)
	if content == "" && msgType == chat.TypeText {
		return MessageView{}, ob_errors.ErrInvalidInput
	}

	var replyTo uuid.NullUUID
	if in.ReplyToID != nil {
		parent, err := s.chatRepo.GetMessageByID(ctx, *in.ReplyToID)
		if err != nil {
			return MessageView{}, err
		}
		if parent.ConversationID != conv.ID {
			return MessageView{}, ob_errors.ErrInvalidInput
		}
		replyTo = uuid.NullUUID{UUID: parent.ID, Valid: true}
	}

	msg := chat.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       in.SenderID,
		ReceiverID:     receiverID,
		Content:        content,
		Type:           msgType,
		ReadStatus:     chat.StatusSent,
		ReplyToID:      replyTo,
		CreatedAt:      time.Now(),
	}
	if err := s.chatRepo.CreateMessage(ctx, &msg); err != nil {
		return MessageView{}, err
	}
	if err := s.chatRepo.TouchConversation(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		return MessageView{}, err
	}

	sender, err := s.userRepo.GetByID(ctx, in.SenderID)
	if err != nil {
		return MessageView{}, err
	}
	view := s.messageView(msg, sender.Profile())

	s.broker.Publish(ChatChannel(conv.ID), EventNewMessage, NewMessageEvent{
		ChatID:  conv.ID,
		Message: view,
	})

	if s.notifications != nil {
		s.notifications.Notify(ctx, CreateNotificationInput{
			RecipientID: receiverID,
			SenderID:    in.SenderID,
			Type:        notification.TypeChatMessage,
			Message:     sender.Name + " sent you a message",
			Related:     notification.RelatedRefs{ChatID: uuid.NullUUID{UUID: conv.ID, Valid: true}},
		})
	}

	return view, nil
}

// ListMessages returns one page, oldest-first within the page, and as a
// side effect marks every message addressed to the requester as read.
func (s *ChatService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, page, limit int) ([]MessageView, error) {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, ob_errors.ErrForbidden
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	messages, err := s.chatRepo.GetConversationMessages(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}

	// Read receipt side effect of the fetch, never applied to the
	// requester's own outbound messages.
	if _, err := s.chatRepo.MarkConversationRead(ctx, conversationID, requesterID, time.Now()); err != nil {
		return nil, err
	}

	profiles, err := s.profilesFor(ctx, conv)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.ReceiverID == requesterID && m.ReadStatus != chat.StatusRead {
			m.ReadStatus = chat.StatusRead
		}
		views = append(views, s.messageView(m, profiles[m.SenderID]))
	}
	return views, nil
}

// MarkDelivered advances the requester's inbound sent messages to
// delivered, typically on realtime connect.
func (s *ChatService) MarkDelivered(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := s.chatRepo.GetConversationByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return ob_errors.ErrForbidden
	}
	_, err = s.chatRepo.MarkConversationDelivered(ctx, conversationID, userID)
	return err
}

// DeleteMessage soft-deletes a message so listings stop returning it.
// Only the sender may delete, and only within the conversation the
// message belongs to.
func (s *ChatService) DeleteMessage(ctx context.Context, conversationID, messageID, requesterID uuid.UUID) error {
	msg, err := s.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.ConversationID != conversationID {
		return ob_errors.ErrNotFound
	}
	if msg.SenderID != requesterID {
		return ob_errors.ErrForbidden
	}
	return s.chatRepo.SoftDeleteMessage(ctx, messageID)
}

func (s *ChatService) buildChatView(ctx context.Context, conv chat.Conversation, viewerID uuid.UUID) (ChatView, error) {
	profiles, err := s.profilesFor(ctx, conv)
	if err != nil {
		return ChatView{}, err
	}

	view := ChatView{
		ID:           conv.ID,
		Participants: []user.Profile{profiles[conv.UserAID], profiles[conv.UserBID]},
		LastActivity: conv.LastActivity,
		IsActive:     conv.IsActive,
	}
	if otherID, ok := conv.Other(viewerID); ok {
		other := profiles[otherID]
		view.OtherUser = &other
	}
	if conv.LastMessageID.Valid {
		last, err := s.chatRepo.GetMessageByID(ctx, conv.LastMessageID.UUID)
		if err == nil {
			lastView := s.messageView(last, profiles[last.SenderID])
			view.LastMessage = &lastView
		} else if !errors.Is(err, ob_errors.ErrNotFound) {
			return ChatView{}, err
		}
	}
	return view, nil
}

func (s *ChatService) profilesFor(ctx context.Context, conv chat.Conversation) (map[uuid.UUID]user.Profile, error) {
	users, err := s.userRepo.GetByIDs(ctx, []uuid.UUID{conv.UserAID, conv.UserBID})
	if err != nil {
		return nil, err
	}
	profiles := make(map[uuid.UUID]user.Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}
	return profiles, nil
}

func (s *ChatService) messageView(m chat.Message, sender user.Profile) MessageView {
	view := MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		ReceiverID:     m.ReceiverID,
		Content:        m.Content,
		Type:           m.Type,
		ReadStatus:     m.ReadStatus,
		CreatedAt:      m.CreatedAt,
	}
	if m.ReplyToID.Valid {
		id := m.ReplyToID.UUID
		view.ReplyToID = &id
	}
	return view
}
