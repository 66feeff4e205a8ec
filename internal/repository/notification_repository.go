package repository

import (
	"context"
	"errors"
	"time"

	"openbook-server/internal/domain/notification"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	res := r.db.WithContext(ctx).Create(n)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *PostgresNotificationRepository) Update(ctx context.Context, n notification.Notification) error {
	res := r.db.WithContext(ctx).Save(&n)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}

// FindRecentDuplicate matches on the full coalescing tuple. Null related
// refs must match null columns, so each slot is compared explicitly.
func (r *PostgresNotificationRepository) FindRecentDuplicate(ctx context.Context, recipientID, senderID uuid.UUID, kind string, refs notification.RelatedRefs, since time.Time) (notification.Notification, error) {
	q := r.db.WithContext(ctx).
		Where("recipient_id = ? AND sender_id = ? AND type = ? AND created_at >= ?",
			recipientID, senderID, kind, since)

	q = whereNullableUUID(q, "related_post_id", refs.PostID)
	q = whereNullableUUID(q, "related_chat_id", refs.ChatID)
	q = whereNullableUUID(q, "related_request_id", refs.RequestID)

	var n notification.Notification
	err := q.First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notification.Notification{}, ob_errors.ErrNotFound
		}
		return notification.Notification{}, err
	}
	return n, nil
}

func (r *PostgresNotificationRepository) List(ctx context.Context, recipientID uuid.UUID, page, limit int, unreadOnly bool) ([]notification.Notification, int64, error) {
	var notifications []notification.Notification
	var total int64

	q := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, recipientID uuid.UUID, ids []uuid.UUID, at time.Time) error {
	q := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false)
	if len(ids) > 0 {
		q = q.Where("id IN (?)", ids)
	}
	return q.Updates(map[string]interface{}{
		"read":    true,
		"read_at": at,
	}).Error
}

func (r *PostgresNotificationRepository) DeleteOwned(ctx context.Context, id, recipientID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Delete(&notification.Notification{}, "id = ? AND recipient_id = ?", id, recipientID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) DeleteForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&notification.Notification{}, "recipient_id = ? OR sender_id = ?", userID, userID).Error
}

func whereNullableUUID(q *gorm.DB, column string, id uuid.NullUUID) *gorm.DB {
	if id.Valid {
		return q.Where(column+" = ?", id.UUID)
	}
	return q.Where(column + " IS NULL")
}
