package repository

import (
	"fmt"
	"testing"
	"time"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	"openbook-server/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&user.Friendship{},
		&request.ConnectionRequest{},
		&chat.Conversation{},
		&chat.Message{},
		&notification.Notification{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, name string) user.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	u := user.User{
		ID:           uuid.New(),
		Name:         name,
		Username:     fmt.Sprintf("%s-%s", name, suffix),
		Email:        fmt.Sprintf("%s-%s@test.com", name, suffix),
		PasswordHash: "x",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedConversation(t *testing.T, db *gorm.DB, a, b uuid.UUID) chat.Conversation {
	t.Helper()
	lo, hi := a, b
	if hi.String() < lo.String() {
		lo, hi = hi, lo
	}
	now := time.Now()
	conv := chat.Conversation{
		ID:           uuid.New(),
		PairKey:      chat.PairKey(a, b),
		UserAID:      lo,
		UserBID:      hi,
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, db.Create(&conv).Error)
	return conv
}

func seedMessage(t *testing.T, db *gorm.DB, conv chat.Conversation, sender, receiver uuid.UUID, content string, at time.Time) chat.Message {
	t.Helper()
	m := chat.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       sender,
		ReceiverID:     receiver,
		Content:        content,
		Type:           chat.TypeText,
		ReadStatus:     chat.StatusSent,
		CreatedAt:      at,
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}
