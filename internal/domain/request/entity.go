package request

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Kind discriminates the two historical request flows. They share a
// single schema; only the side effects on acceptance differ.
type Kind string

const (
	KindFriend Kind = "friend"
	KindChat   Kind = "chat"
)

// Status values for a connection request lifecycle.
// pending -> accepted | declined, both terminal. Cancel removes the row.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// ConnectionRequest represents the connection_requests table
type ConnectionRequest struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	SenderID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_requests_pair_kind,priority:1;index:idx_requests_sender_status,priority:1"`
	ReceiverID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_requests_pair_kind,priority:2;index:idx_requests_receiver_status,priority:1"`
	Kind        Kind           `gorm:"size:16;not null;uniqueIndex:idx_requests_pair_kind,priority:3"`
	Message     sql.NullString `gorm:"size:200"`
	Status      Status         `gorm:"size:16;not null;default:pending;index:idx_requests_sender_status,priority:2;index:idx_requests_receiver_status,priority:2"`
	CreatedAt   time.Time
	RespondedAt sql.NullTime
}

func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

func (r ConnectionRequest) IsPending() bool {
	return r.Status == StatusPending
}
