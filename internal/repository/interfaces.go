package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	"openbook-server/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
	SearchUsers(ctx context.Context, query string, page, limit int) ([]user.User, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddFriendship(ctx context.Context, userID, friendID uuid.UUID) error
	RemoveFriendship(ctx context.Context, userID, friendID uuid.UUID) error
	AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error)
	GetFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type RequestRepository interface {
	Create(ctx context.Context, r *request.ConnectionRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (request.ConnectionRequest, error)
	FindBetween(ctx context.Context, userA, userB uuid.UUID, kind request.Kind) (request.ConnectionRequest, error)
	FindPending(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind) (request.ConnectionRequest, error)
	Update(ctx context.Context, r request.ConnectionRequest) error
	DeletePending(ctx context.Context, senderID, receiverID uuid.UUID, kind request.Kind) error
	DeleteAccepted(ctx context.Context, userA, userB uuid.UUID, kind request.Kind) error
	ListReceivedPending(ctx context.Context, receiverID uuid.UUID, kind request.Kind) ([]request.ConnectionRequest, error)
	ListSent(ctx context.Context, senderID uuid.UUID, kind request.Kind) ([]request.ConnectionRequest, error)
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

type ChatRepository interface {
	CreateConversation(ctx context.Context, c *chat.Conversation) error
	GetConversationByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error)
	GetConversationByPairKey(ctx context.Context, pairKey string) (chat.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]chat.Conversation, error)
	TouchConversation(ctx context.Context, conversationID, lastMessageID uuid.UUID, at time.Time) error
	DeleteConversationsForUser(ctx context.Context, userID uuid.UUID) error

	CreateMessage(ctx context.Context, m *chat.Message) error
	GetMessageByID(ctx context.Context, id uuid.UUID) (chat.Message, error)
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]chat.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, receiverID uuid.UUID, at time.Time) (int64, error)
	MarkConversationDelivered(ctx context.Context, conversationID, receiverID uuid.UUID) (int64, error)
	SoftDeleteMessage(ctx context.Context, id uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *notification.Notification) error
	Update(ctx context.Context, n notification.Notification) error
	FindRecentDuplicate(ctx context.Context, recipientID, senderID uuid.UUID, kind string, refs notification.RelatedRefs, since time.Time) (notification.Notification, error)
	List(ctx context.Context, recipientID uuid.UUID, page, limit int, unreadOnly bool) ([]notification.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID, at time.Time) error
	DeleteOwned(ctx context.Context, id, recipientID uuid.UUID) error
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}
