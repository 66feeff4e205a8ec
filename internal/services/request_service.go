package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	"openbook-server/internal/domain/user"
	"openbook-server/internal/repository"
	ob_errors "openbook-server/pkg/errors"
	"openbook-server/pkg/logger"

	"github.com/google/uuid"
)

const maxRequestMessageLen = 200

type RequestService struct {
	requestRepo   repository.RequestRepository
	userRepo      repository.UserRepository
	chats         *ChatService
	notifications *NotificationService
	logger        *logger.Logger
}

func NewRequestService(requestRepo repository.RequestRepository, userRepo repository.UserRepository, chats *ChatService, notifications *NotificationService, l *logger.Logger) *RequestService {
	return &RequestService{
		requestRepo:   requestRepo,
		userRepo:      userRepo,
		chats:         chats,
		notifications: notifications,
		logger:        l,
	}
}

// Relationship status between two users for one request kind.
const (
	RelationNone     = "none"
	RelationSent     = "sent"
	RelationReceived = "received"
	RelationAccepted = "accepted"
	RelationFriends  = "friends"
)

type RequestView struct {
	ID          uuid.UUID      `json:"id"`
	Sender      user.Profile   `json:"sender"`
	Receiver    user.Profile   `json:"receiver"`
	Kind        request.Kind   `json:"kind"`
	Message     string         `json:"message,omitempty"`
	Status      request.Status `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	RespondedAt *time.Time     `json:"respondedAt,omitempty"`
}

type RelationStatus struct {
	Status    string     `json:"status"`
	RequestID *uuid.UUID `json:"requestId,omitempty"`
}

// Send creates a pending request from sender to receiver. A request of
// the same kind in either direction blocks the new one regardless of its
// state; the unique (sender, receiver, kind) index backs the check
// against concurrent inserts.
func (s *RequestService) Send(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind, message string) (RequestView, error) {
	if senderID == receiverID {
		return RequestView{}, ob_errors.ErrSelfAction
	}
	if len(message) > maxRequestMessageLen {
		return RequestView{}, ob_errors.ErrInvalidInput
	}

	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return RequestView{}, err
	}
	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return RequestView{}, err
	}

	if _, err := s.requestRepo.FindBetween(ctx, senderID, receiverID, kind); err == nil {
		return RequestView{}, ob_errors.ErrAlreadyExists
	} else if !errors.Is(err, ob_errors.ErrNotFound) {
		return RequestView{}, err
	}

	req := request.ConnectionRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Status:     request.StatusPending,
		CreatedAt:  time.Now(),
	}
	if message != "" {
		req.Message = sql.NullString{String: message, Valid: true}
	}
	if err := s.requestRepo.Create(ctx, &req); err != nil {
		return RequestView{}, err
	}

	notifType := notification.TypeChatRequest
	notifText := sender.Name + " sent you a chat request"
	if kind == request.KindFriend {
		notifType = notification.TypeFriendRequest
		notifText = sender.Name + " sent you a friend request"
	}
	s.notifications.Notify(ctx, CreateNotificationInput{
		RecipientID: receiverID,
		SenderID:    senderID,
		Type:        notifType,
		Message:     notifText,
		Related:     notification.RelatedRefs{RequestID: uuid.NullUUID{UUID: req.ID, Valid: true}},
	})

	return requestView(req, sender.Profile(), receiver.Profile()), nil
}

type RespondResult struct {
	Request RequestView `json:"request"`
	Chat    *ChatView   `json:"chat,omitempty"`
}

// Respond lets the receiver accept or decline a pending request. Accept
// of a chat-kind request lazily creates the conversation; accept of a
// friend-kind request records the symmetric friendship.
func (s *RequestService) Respond(ctx context.Context, requestID, responderID uuid.UUID, action string) (RespondResult, error) {
	if action != "accept" && action != "decline" {
		return RespondResult{}, ob_errors.ErrInvalidInput
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return RespondResult{}, err
	}
	if req.ReceiverID != responderID {
		return RespondResult{}, ob_errors.ErrForbidden
	}
	if !req.IsPending() {
		return RespondResult{}, ob_errors.ErrInvalidTransition
	}

	req.Status = request.StatusDeclined
	if action == "accept" {
		req.Status = request.StatusAccepted
	}
	req.RespondedAt = sql.NullTime{Time: time.Now(), Valid: true}
	if err := s.requestRepo.Update(ctx, req); err != nil {
		return RespondResult{}, err
	}

	result := RespondResult{}
	if action == "accept" {
		responder, err := s.userRepo.GetByID(ctx, responderID)
		if err != nil {
			return RespondResult{}, err
		}

		switch req.Kind {
		case request.KindChat:
			view, err := s.chats.FindOrCreate(ctx, req.ReceiverID, req.SenderID)
			if err != nil {
				return RespondResult{}, err
			}
			result.Chat = &view
			s.notifications.Notify(ctx, CreateNotificationInput{
				RecipientID: req.SenderID,
				SenderID:    responderID,
				Type:        notification.TypeChatAccept,
				Message:     responder.Name + " accepted your chat request",
				Related:     notification.RelatedRefs{RequestID: uuid.NullUUID{UUID: req.ID, Valid: true}},
			})
		case request.KindFriend:
			if err := s.userRepo.AddFriendship(ctx, req.SenderID, req.ReceiverID); err != nil {
				return RespondResult{}, err
			}
			s.notifications.Notify(ctx, CreateNotificationInput{
				RecipientID: req.SenderID,
				SenderID:    responderID,
				Type:        notification.TypeFriendAccept,
				Message:     responder.Name + " accepted your friend request",
			})
		}
	}

	view, err := s.viewWithProfiles(ctx, req)
	if err != nil {
		return RespondResult{}, err
	}
	result.Request = view
	return result, nil
}

// RespondToSender resolves the pending request authored by senderID
// toward responderID and responds to it. Mirrors the friend-request
// endpoints, which address the request by its sender rather than by id.
func (s *RequestService) RespondToSender(ctx context.Context, senderID, responderID uuid.UUID, kind request.Kind, action string) (RespondResult, error) {
	req, err := s.requestRepo.FindPending(ctx, senderID, responderID, kind)
	if err != nil {
		return RespondResult{}, err
	}
	return s.Respond(ctx, req.ID, responderID, action)
}

// Cancel removes a pending request authored by senderID. Requests that
// already reached a terminal state are not cancellable.
func (s *RequestService) Cancel(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind) error {
	return s.requestRepo.DeletePending(ctx, senderID, receiverID, kind)
}

// QueryStatus reports the relationship from userA's perspective:
// friends/accepted, then a pending request in either direction.
func (s *RequestService) QueryStatus(ctx context.Context, userA, userB uuid.UUID, kind request.Kind) (RelationStatus, error) {
	if kind == request.KindFriend {
		friends, err := s.userRepo.AreFriends(ctx, userA, userB)
		if err != nil {
			return RelationStatus{}, err
		}
		if friends {
			return RelationStatus{Status: RelationFriends}, nil
		}
	}

	req, err := s.requestRepo.FindBetween(ctx, userA, userB, kind)
	if errors.Is(err, ob_errors.ErrNotFound) {
		return RelationStatus{Status: RelationNone}, nil
	}
	if err != nil {
		return RelationStatus{}, err
	}

	id := req.ID
	switch {
	case req.Status == request.StatusAccepted:
		return RelationStatus{Status: RelationAccepted, RequestID: &id}, nil
	case req.IsPending() && req.SenderID == userA:
		return RelationStatus{Status: RelationSent, RequestID: &id}, nil
	case req.IsPending():
		return RelationStatus{Status: RelationReceived, RequestID: &id}, nil
	}
	return RelationStatus{Status: RelationNone, RequestID: &id}, nil
}

func (s *RequestService) ListReceived(ctx context.Context, receiverID uuid.UUID, kind request.Kind) ([]RequestView, error) {
	requests, err := s.requestRepo.ListReceivedPending(ctx, receiverID, kind)
	if err != nil {
		return nil, err
	}
	return s.viewsWithProfiles(ctx, requests)
}

func (s *RequestService) ListSent(ctx context.Context, senderID uuid.UUID, kind request.Kind) ([]RequestView, error) {
	requests, err := s.requestRepo.ListSent(ctx, senderID, kind)
	if err != nil {
		return nil, err
	}
	return s.viewsWithProfiles(ctx, requests)
}

// RemoveFriend tears down the symmetric friendship and the accepted
// request record behind it.
func (s *RequestService) RemoveFriend(ctx context.Context, userID, friendID uuid.UUID) error {
	if err := s.userRepo.RemoveFriendship(ctx, userID, friendID); err != nil {
		return err
	}
	return s.requestRepo.DeleteAccepted(ctx, userID, friendID, request.KindFriend)
}

func (s *RequestService) viewWithProfiles(ctx context.Context, req request.ConnectionRequest) (RequestView, error) {
	views, err := s.viewsWithProfiles(ctx, []request.ConnectionRequest{req})
	if err != nil {
		return RequestView{}, err
	}
	return views[0], nil
}

func (s *RequestService) viewsWithProfiles(ctx context.Context, requests []request.ConnectionRequest) ([]RequestView, error) {
	idSet := make(map[uuid.UUID]struct{})
	for _, req := range requests {
		idSet[req.SenderID] = struct{}{}
		idSet[req.ReceiverID] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	profiles := make(map[uuid.UUID]user.Profile, len(users))
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}

	views := make([]RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, requestView(req, profiles[req.SenderID], profiles[req.ReceiverID]))
	}
	return views, nil
}

func requestView(req request.ConnectionRequest, sender, receiver user.Profile) RequestView {
	view := RequestView{
		ID:        req.ID,
		Sender:    sender,
		Receiver:  receiver,
		Kind:      req.Kind,
		Status:    req.Status,
		CreatedAt: req.CreatedAt,
	}
	if req.Message.Valid {
		view.Message = req.Message.String
	}
	if req.RespondedAt.Valid {
		t := req.RespondedAt.Time
		view.RespondedAt = &t
	}
	return view
}
