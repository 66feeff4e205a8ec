package services

import (
	"context"
	"testing"

	"openbook-server/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationCreateSuppressesSelf(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")

	n, err := f.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: a.ID,
		SenderID:    a.ID,
		Type:        notification.TypeLike,
		Message:     "you liked your own post",
	})
	require.NoError(t, err)
	assert.Nil(t, n)

	unread, err := f.notifications.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationCreateCoalescesDuplicates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")
	chatRef := notification.RelatedRefs{ChatID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}

	first, err := f.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: b.ID,
		SenderID:    a.ID,
		Type:        notification.TypeChatMessage,
		Message:     "alice sent you a message",
		Related:     chatRef,
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, f.notifications.MarkRead(ctx, b.ID, []uuid.UUID{first.ID}))

	// A repeat inside the window refreshes the row instead of stacking a
	// new one, and flips it back to unread.
	second, err := f.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: b.ID,
		SenderID:    a.ID,
		Type:        notification.TypeChatMessage,
		Message:     "alice sent you 2 messages",
		Related:     chatRef,
	})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "alice sent you 2 messages", second.Message)
	assert.False(t, second.Read)

	page, err := f.notifications.ListForUser(ctx, b.ID, 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int64(1), page.UnreadCount)

	// A different related ref is its own notification.
	otherRef := notification.RelatedRefs{ChatID: uuid.NullUUID{UUID: uuid.New(), Valid: true}}
	third, err := f.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: b.ID,
		SenderID:    a.ID,
		Type:        notification.TypeChatMessage,
		Message:     "another chat",
		Related:     otherRef,
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestNotificationListPagination(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	for i := 0; i < 5; i++ {
		_, err := f.notifications.Create(ctx, CreateNotificationInput{
			RecipientID: b.ID,
			SenderID:    a.ID,
			Type:        notification.TypeComment,
			Message:     "commented on your post",
			Related:     notification.RelatedRefs{PostID: uuid.NullUUID{UUID: uuid.New(), Valid: true}},
		})
		require.NoError(t, err)
	}

	page, err := f.notifications.ListForUser(ctx, b.ID, 1, 2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, int64(5), page.UnreadCount)
	assert.Len(t, page.Notifications, 2)
	assert.True(t, page.HasMore)

	page, err = f.notifications.ListForUser(ctx, b.ID, 3, 2, false)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 1)
	assert.False(t, page.HasMore)
}

func TestNotificationMarkReadAll(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	for i := 0; i < 3; i++ {
		_, err := f.notifications.Create(ctx, CreateNotificationInput{
			RecipientID: b.ID,
			SenderID:    a.ID,
			Type:        notification.TypeFollow,
			Message:     "started following you",
			Related:     notification.RelatedRefs{PostID: uuid.NullUUID{UUID: uuid.New(), Valid: true}},
		})
		require.NoError(t, err)
	}

	require.NoError(t, f.notifications.MarkRead(ctx, b.ID, nil))

	unread, err := f.notifications.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotificationDeleteOwned(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	n, err := f.notifications.Create(ctx, CreateNotificationInput{
		RecipientID: b.ID,
		SenderID:    a.ID,
		Type:        notification.TypeFollow,
		Message:     "started following you",
	})
	require.NoError(t, err)

	// The sender cannot delete the recipient's notification.
	err = f.notifications.Delete(ctx, n.ID, a.ID)
	require.Error(t, err)

	require.NoError(t, f.notifications.Delete(ctx, n.ID, b.ID))
	unread, err := f.notifications.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
