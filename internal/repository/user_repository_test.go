package repository

import (
	"context"
	"testing"
	"time"

	"openbook-server/internal/domain/notification"
	"openbook-server/internal/domain/request"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepositoryEmailUnique(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")

	dup := a
	dup.ID = uuid.New()
	err := repo.Create(ctx, &dup)
	assert.ErrorIs(t, err, ob_errors.ErrAlreadyExists)
}

func TestUserRepositoryGetByEmail(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")

	found, err := repo.GetByEmail(ctx, a.Email)
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	_, err = repo.GetByEmail(ctx, "nobody@test.com")
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}

func TestUserRepositorySearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	seedUser(t, db, "alice walker")
	seedUser(t, db, "alicia keys")
	seedUser(t, db, "bob")

	users, total, err := repo.SearchUsers(ctx, "ali", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, "alice walker", users[0].Name)
	assert.Equal(t, "alicia keys", users[1].Name)

	users, total, err = repo.SearchUsers(ctx, "ali", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 1)
	assert.Equal(t, "alicia keys", users[0].Name)
}

func TestUserRepositoryFriendship(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	ok, err := repo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.AddFriendship(ctx, a.ID, b.ID))

	// The edge is symmetric.
	ok, err = repo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.AreFriends(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Re-adding is tolerated.
	require.NoError(t, repo.AddFriendship(ctx, b.ID, a.ID))

	ids, err := repo.GetFriendIDs(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, ids)

	require.NoError(t, repo.RemoveFriendship(ctx, b.ID, a.ID))
	ok, err = repo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.AreFriends(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUserRepositoryDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	requests := NewRequestRepository(db)
	chats := NewChatRepository(db)
	notifications := NewNotificationRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	require.NoError(t, repo.AddFriendship(ctx, a.ID, b.ID))

	req := newPendingRequest(a.ID, b.ID, request.KindFriend)
	require.NoError(t, requests.Create(ctx, &req))

	conv := seedConversation(t, db, a.ID, b.ID)
	msg := seedMessage(t, db, conv, a.ID, b.ID, "hi", time.Now())

	n := newNotification(b.ID, a.ID, notification.TypeFriendRequest, notification.RelatedRefs{}, time.Now())
	require.NoError(t, notifications.Create(ctx, &n))

	require.NoError(t, repo.Delete(ctx, a.ID))

	_, err := repo.GetByID(ctx, a.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
	_, err = requests.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
	_, err = chats.GetConversationByID(ctx, conv.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
	_, err = chats.GetMessageByID(ctx, msg.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)

	ok, err := repo.AreFriends(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, total, err := notifications.List(ctx, b.ID, 1, 10, false)
	require.NoError(t, err)
	assert.Zero(t, total)

	// Deleting a missing user reports not found.
	err = repo.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}
