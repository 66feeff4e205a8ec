package chat

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message types
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
)

// Read status progression. Transitions are monotonic:
// sent -> delivered -> read, advanced only by the receiving side.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Conversation represents the conversations table. Exactly two
// participants; PairKey is the normalized participant pair and carries
// the unique index that serializes concurrent find-or-create calls.
type Conversation struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	PairKey       string    `gorm:"size:73;not null;uniqueIndex"`
	UserAID       uuid.UUID `gorm:"type:uuid;not null;index"`
	UserBID       uuid.UUID `gorm:"type:uuid;not null;index"`
	LastMessageID uuid.NullUUID
	LastActivity  time.Time `gorm:"index"`
	IsActive      bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conv_created,priority:1"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null"`
	ReceiverID     uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_receiver_status,priority:1"`
	Content        string    `gorm:"type:text;not null"`
	Type           string    `gorm:"size:16;not null;default:text"`
	ReadStatus     string    `gorm:"size:16;not null;default:sent;index:idx_messages_receiver_status,priority:2"`
	ReadAt         sql.NullTime
	ReplyToID      uuid.NullUUID
	IsDeleted      bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conv_created,priority:2"`
}

// PairKey normalizes an unordered participant pair to a stable key.
func PairKey(a, b uuid.UUID) string {
	lo, hi := a.String(), b.String()
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return lo + ":" + hi
}

// Other returns the participant opposite to userID, and whether userID
// is a participant at all.
func (c Conversation) Other(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case c.UserAID:
		return c.UserBID, true
	case c.UserBID:
		return c.UserAID, true
	}
	return uuid.Nil, false
}

func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	return userID == c.UserAID || userID == c.UserBID
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Message) TableName() string {
	return "messages"
}
