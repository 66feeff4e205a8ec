package database

import (
	"fmt"
	"log"
	"time"

	"openbook-server/internal/domain/chat"
	"openbook-server/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedConfig controls development seeding.
type SeedConfig struct {
	CreateTestUsers bool
	TestUserCount   int
}

func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		CreateTestUsers: true,
		TestUserCount:   5,
	}
}

// Seed fills the database with demo users, a friendship and one
// conversation so the API is explorable right after migration.
func Seed(db *gorm.DB, cfg *SeedConfig) error {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}
	if !cfg.CreateTestUsers {
		return nil
	}

	users, err := seedTestUsers(db, cfg.TestUserCount)
	if err != nil {
		return fmt.Errorf("failed to seed test users: %w", err)
	}

	if len(users) >= 2 {
		if err := seedFriendship(db, users[0], users[1]); err != nil {
			return fmt.Errorf("failed to seed friendship: %w", err)
		}
		if err := seedConversation(db, users[0], users[1]); err != nil {
			return fmt.Errorf("failed to seed conversation: %w", err)
		}
	}

	log.Println("Database seeding completed")
	return nil
}

func seedTestUsers(db *gorm.DB, count int) ([]user.User, error) {
	testUserData := []struct {
		email    string
		name     string
		username string
	}{
		{"alice@test.com", "Alice Johnson", "alice"},
		{"bob@test.com", "Bob Smith", "bob"},
		{"charlie@test.com", "Charlie Brown", "charlie"},
		{"diana@test.com", "Diana Prince", "diana"},
		{"edward@test.com", "Edward Chen", "edward"},
		{"fiona@test.com", "Fiona Green", "fiona"},
		{"george@test.com", "George Miller", "george"},
		{"hannah@test.com", "Hannah White", "hannah"},
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Test@123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, count)
	for i := 0; i < count && i < len(testUserData); i++ {
		data := testUserData[i]

		var existing user.User
		if err := db.Where("email = ?", data.email).First(&existing).Error; err == nil {
			log.Printf("Test user %s already exists, skipping", data.email)
			users = append(users, existing)
			continue
		}

		u := user.User{
			ID:           uuid.New(),
			Name:         data.name,
			Username:     data.username,
			Email:        data.email,
			PasswordHash: string(hashedPassword),
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := db.Create(&u).Error; err != nil {
			return nil, err
		}
		users = append(users, u)
		log.Printf("Test user seeded: %s", data.email)
	}
	return users, nil
}

func seedFriendship(db *gorm.DB, a, b user.User) error {
	rows := []user.Friendship{
		{UserID: a.ID, FriendID: b.ID, CreatedAt: time.Now()},
		{UserID: b.ID, FriendID: a.ID, CreatedAt: time.Now()},
	}
	for _, row := range rows {
		if err := db.FirstOrCreate(&row, user.Friendship{UserID: row.UserID, FriendID: row.FriendID}).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedConversation(db *gorm.DB, a, b user.User) error {
	pairKey := chat.PairKey(a.ID, b.ID)

	var existing chat.Conversation
	if err := db.Where("pair_key = ?", pairKey).First(&existing).Error; err == nil {
		return nil
	}

	lo, hi := a.ID, b.ID
	if hi.String() < lo.String() {
		lo, hi = hi, lo
	}
	now := time.Now()
	conv := chat.Conversation{
		ID:           uuid.New(),
		PairKey:      pairKey,
		UserAID:      lo,
		UserBID:      hi,
		LastActivity: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&conv).Error; err != nil {
		return err
	}

	messages := []string{
		"Hey, good to see you here",
		"Likewise! This chat thing works",
	}
	senders := []uuid.UUID{a.ID, b.ID}
	receivers := []uuid.UUID{b.ID, a.ID}
	for i, content := range messages {
		msg := chat.Message{
			ID:             uuid.New(),
			ConversationID: conv.ID,
			SenderID:       senders[i],
			ReceiverID:     receivers[i],
			Content:        content,
			Type:           chat.TypeText,
			ReadStatus:     chat.StatusSent,
			CreatedAt:      now.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&msg).Error; err != nil {
			return err
		}
		conv.LastMessageID = uuid.NullUUID{UUID: msg.ID, Valid: true}
		conv.LastActivity = msg.CreatedAt
	}
	return db.Save(&conv).Error
}
