package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	"openbook-server/internal/domain/user"
	"openbook-server/internal/repository"

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

func createUser(t *testing.T, db *gorm.DB, name string) user.User {
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

type publishedEvent struct {
	Channel string
	Event   string
	Payload interface{}
	// true when the published message row was already durable at
	// publish time
	Durable bool
}

// recordingBroker captures publishes and, for message events, checks
// against the database that the row existed before the event went out.
type recordingBroker struct {
	db *gorm.DB

	mu     sync.Mutex
	events []publishedEvent
}

func (b *recordingBroker) Publish(channel, event string, payload interface{}) {
	rec := publishedEvent{Channel: channel, Event: event, Payload: payload}
	if ev, ok := payload.(NewMessageEvent); ok && b.db != nil {
		var count int64
		b.db.Model(&chat.Message{}).Where("id = ?", ev.Message.ID).Count(&count)
		rec.Durable = count == 1
	}
	b.mu.Lock()
	b.events = append(b.events, rec)
	b.mu.Unlock()
}

func (b *recordingBroker) Events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publishedEvent, len(b.events))
	copy(out, b.events)
	return out
}

type serviceFixture struct {
	db *gorm.DB

	userRepo repository.UserRepository
	chatRepo repository.ChatRepository

	broker        *recordingBroker
	notifications *NotificationService
	chats         *ChatService
	requests      *RequestService
	users         *UserService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := newTestDB(t)
	userRepo := repository.NewUserRepository(db)
	chatRepo := repository.NewChatRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	broker := &recordingBroker{db: db}
	notifications := NewNotificationService(notificationRepo, nil)
	chats := NewChatService(chatRepo, userRepo, notifications, broker, nil)
	requests := NewRequestService(requestRepo, userRepo, chats, notifications, nil)
	users := NewUserService(userRepo)

	return &serviceFixture{
		db:            db,
		userRepo:      userRepo,
		chatRepo:      chatRepo,
		broker:        broker,
		notifications: notifications,
		chats:         chats,
		requests:      requests,
		users:         users,
	}
}
