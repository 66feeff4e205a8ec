package repository

import (
	"context"
	"errors"
	"time"

	"openbook-server/internal/domain/chat"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &PostgresChatRepository{db: db}
}

func (r *PostgresChatRepository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	res := r.db.WithContext(ctx).Create(c)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ob_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresChatRepository) GetConversationByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Conversation{}, ob_errors.ErrNotFound
		}
		return chat.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetConversationByPairKey(ctx context.Context, pairKey string) (chat.Conversation, error) {
	var c chat.Conversation
	err := r.db.WithContext(ctx).Where("pair_key = ?", pairKey).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Conversation{}, ob_errors.ErrNotFound
		}
		return chat.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresChatRepository) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	err := r.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND is_active = ?", userID, userID, true).
		Order("last_activity DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *PostgresChatRepository) TouchConversation(ctx context.Context, conversationID, lastMessageID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Conversation{}).
		Where("id = ?", conversationID).
		Updates(map[string]interface{}{
			"last_message_id": lastMessageID,
			"last_activity":   at,
			"updated_at":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresChatRepository) DeleteConversationsForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var convIDs []uuid.UUID
		if err := tx.Model(&chat.Conversation{}).
			Select("id").
			Where("user_a_id = ? OR user_b_id = ?", userID, userID).
			Find(&convIDs).Error; err != nil {
			return err
		}
		if len(convIDs) == 0 {
			return nil
		}
		if err := tx.Delete(&chat.Message{}, "conversation_id IN (?)", convIDs).Error; err != nil {
			return err
		}
		return tx.Delete(&chat.Conversation{}, "id IN (?)", convIDs).Error
	})
}

func (r *PostgresChatRepository) CreateMessage(ctx context.Context, m *chat.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ob_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresChatRepository) GetMessageByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	var m chat.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return chat.Message{}, ob_errors.ErrNotFound
		}
		return chat.Message{}, err
	}
	return m, nil
}

// GetConversationMessages returns the requested page newest-first and
// excludes soft-deleted rows. Callers reverse the page for display.
func (r *PostgresChatRepository) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]chat.Message, error) {
	var messages []chat.Message
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND is_deleted = ?", conversationID, false).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead advances every message addressed to receiverID
// that has not reached read yet. The sender's own messages are untouched,
// which keeps the transition receiver-driven and monotonic.
func (r *PostgresChatRepository) MarkConversationRead(ctx context.Context, conversationID, receiverID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND read_status <> ?",
			conversationID, receiverID, chat.StatusRead).
		Updates(map[string]interface{}{
			"read_status": chat.StatusRead,
			"read_at":     at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresChatRepository) MarkConversationDelivered(ctx context.Context, conversationID, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("conversation_id = ? AND receiver_id = ? AND read_status = ?",
			conversationID, receiverID, chat.StatusSent).
		Update("read_status", chat.StatusDelivered)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresChatRepository) SoftDeleteMessage(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&chat.Message{}).
		Where("id = ?", id).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ob_errors.ErrNotFound
	}
	return nil
}
