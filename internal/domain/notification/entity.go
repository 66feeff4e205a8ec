package notification

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Notification event kinds
const (
	TypeLike          = "like"
	TypeComment       = "comment"
	TypeFollow        = "follow"
	TypeChatRequest   = "chat_request"
	TypeChatAccept    = "chat_accept"
	TypeChatMessage   = "chat_message"
	TypeNewPost       = "new_post"
	TypeFriendRequest = "friend_request"
	TypeFriendAccept  = "friend_accept"
)

// Notification represents the notifications table
type Notification struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	RecipientID      uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_recipient_created,priority:1;index:idx_notifications_recipient_read,priority:1"`
	SenderID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"size:32;not null"`
	Message          string    `gorm:"size:500;not null"`
	RelatedPostID    uuid.NullUUID
	RelatedChatID    uuid.NullUUID
	RelatedRequestID uuid.NullUUID
	Read             bool `gorm:"not null;default:false;index:idx_notifications_recipient_read,priority:2"`
	ReadAt           sql.NullTime
	CreatedAt        time.Time `gorm:"index:idx_notifications_recipient_created,priority:2"`
	UpdatedAt        time.Time
}

// RelatedRefs groups the optional related-entity slots used for
// duplicate coalescing.
type RelatedRefs struct {
	PostID    uuid.NullUUID
	ChatID    uuid.NullUUID
	RequestID uuid.NullUUID
}

func (Notification) TableName() string {
	return "notifications"
}
