package repository

import (
	"context"
	"errors"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	"openbook-server/internal/domain/user"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ob_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, ob_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, ob_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	var users []user.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN (?)", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string, page, limit int) ([]user.User, int64, error) {
	var users []user.User
	var total int64

	pattern := "%" + query + "%"
	q := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("name LIKE ? OR username LIKE ?", pattern, pattern)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.Order("name ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// Delete removes the user together with everything hanging off the
// account: requests in either direction, conversations with their
// messages, friendships and notifications.
func (r *PostgresUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var convIDs []uuid.UUID
		if err := tx.Model(&chat.Conversation{}).
			Select("id").
			Where("user_a_id = ? OR user_b_id = ?", id, id).
			Find(&convIDs).Error; err != nil {
			return err
		}
		if len(convIDs) > 0 {
			if err := tx.Delete(&chat.Message{}, "conversation_id IN (?)", convIDs).Error; err != nil {
				return err
			}
			if err := tx.Delete(&chat.Conversation{}, "id IN (?)", convIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&request.ConnectionRequest{}, "sender_id = ? OR receiver_id = ?", id, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&user.Friendship{}, "user_id = ? OR friend_id = ?", id, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&notification.Notification{}, "recipient_id = ? OR sender_id = ?", id, id).Error; err != nil {
			return err
		}
		res := tx.Delete(&user.User{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ob_errors.ErrNotFound
		}
		return nil
	})
}

func (r *PostgresUserRepository) AddFriendship(ctx context.Context, userID, friendID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, pair := range [][2]uuid.UUID{{userID, friendID}, {friendID, userID}} {
			res := tx.Create(&user.Friendship{UserID: pair[0], FriendID: pair[1]})
			if res.Error != nil && !errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return res.Error
			}
		}
		return nil
	})
}

func (r *PostgresUserRepository) RemoveFriendship(ctx context.Context, userID, friendID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&user.Friendship{}, "(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).Error
}

func (r *PostgresUserRepository) AreFriends(ctx context.Context, userID, friendID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&user.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresUserRepository) GetFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&user.Friendship{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
