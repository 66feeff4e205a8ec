package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:100;not null"`
	Username     string    `gorm:"size:50;uniqueIndex;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Pic          sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Friendship represents the friendships table. Rows are stored
// symmetrically: accepting a friend request inserts (A,B) and (B,A).
type Friendship struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	FriendID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

// Profile is the minimal projection exposed to other components.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Pic      string    `json:"pic,omitempty"`
}

func (u User) Profile() Profile {
	p := Profile{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email}
	if u.Pic.Valid {
		p.Pic = u.Pic.String
	}
	return p
}

func (User) TableName() string {
	return "users"
}

func (Friendship) TableName() string {
	return "friendships"
}
