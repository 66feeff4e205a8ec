package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"openbook-server/internal/domain/notification"
	"openbook-server/internal/repository"
	ob_errors "openbook-server/pkg/errors"
	"openbook-server/pkg/logger"

	"github.com/google/uuid"
)

// coalesceWindow is the rolling window inside which an identical
// notification updates the existing row instead of inserting a new one.
const coalesceWindow = 24 * time.Hour

type NotificationService struct {
	repo   repository.NotificationRepository
	logger *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, l *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, logger: l}
}

type CreateNotificationInput struct {
	RecipientID uuid.UUID
	SenderID    uuid.UUID
	Type        string
	Message     string
	Related     notification.RelatedRefs
}

// Create stores a notification, coalescing duplicates created within the
// last 24 hours. Self-notifications are suppressed and return nil.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*notification.Notification, error) {
	if in.RecipientID == in.SenderID {
		return nil, nil
	}

	existing, err := s.repo.FindRecentDuplicate(ctx, in.RecipientID, in.SenderID, in.Type, in.Related, time.Now().Add(-coalesceWindow))
	if err == nil {
		existing.Message = in.Message
		existing.Read = false
		existing.ReadAt = sql.NullTime{}
		existing.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, ob_errors.ErrNotFound) {
		return nil, err
	}

	n := notification.Notification{
		ID:               uuid.New(),
		RecipientID:      in.RecipientID,
		SenderID:         in.SenderID,
		Type:             in.Type,
		Message:          in.Message,
		RelatedPostID:    in.Related.PostID,
		RelatedChatID:    in.Related.ChatID,
		RelatedRequestID: in.Related.RequestID,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	if err := s.repo.Create(ctx, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Notify is the fire-and-forget variant used as a side effect of primary
// actions. Failures are logged and swallowed so they can never abort the
// action that triggered them.
func (s *NotificationService) Notify(ctx context.Context, in CreateNotificationInput) {
	if _, err := s.Create(ctx, in); err != nil && s.logger != nil {
		s.logger.Errorf("notification write failed (type=%s recipient=%s): %s", in.Type, in.RecipientID, err.Error())
	}
}

type NotificationPage struct {
	Notifications []notification.Notification
	Total         int64
	UnreadCount   int64
	Page          int
	HasMore       bool
}

func (s *NotificationService) ListForUser(ctx context.Context, recipientID uuid.UUID, page, limit int, unreadOnly bool) (NotificationPage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	items, total, err := s.repo.List(ctx, recipientID, page, limit, unreadOnly)
	if err != nil {
		return NotificationPage{}, err
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return NotificationPage{}, err
	}

	return NotificationPage{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		HasMore:       int64(page*limit) < total,
	}, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

// MarkRead marks the listed notifications read, or all of the
// recipient's notifications when ids is empty.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID) error {
	return s.repo.MarkRead(ctx, recipientID, ids, time.Now())
}

func (s *NotificationService) Delete(ctx context.Context, id, recipientID uuid.UUID) error {
	return s.repo.DeleteOwned(ctx, id, recipientID)
}
