package services

import (
	"context"
	"strings"
	"testing"

	"openbook-server/internal/domain/request"
	ob_errors "openbook-server/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSendValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	_, err := f.requests.Send(ctx, a.ID, a.ID, request.KindChat, "")
	assert.ErrorIs(t, err, ob_errors.ErrSelfAction)

	_, err = f.requests.Send(ctx, a.ID, b.ID, request.KindChat, strings.Repeat("x", 201))
	assert.ErrorIs(t, err, ob_errors.ErrInvalidInput)
}

func TestRequestSendNotifiesReceiver(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "hi there")
	require.NoError(t, err)
	assert.Equal(t, a.ID, view.Sender.ID)
	assert.Equal(t, b.ID, view.Receiver.ID)
	assert.Equal(t, request.StatusPending, view.Status)
	assert.Equal(t, "hi there", view.Message)

	unread, err := f.notifications.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestRequestSendBlockedByExisting(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	_, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	require.NoError(t, err)

	// Same direction and the reverse are both blocked.
	_, err = f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	assert.ErrorIs(t, err, ob_errors.ErrAlreadyExists)
	_, err = f.requests.Send(ctx, b.ID, a.ID, request.KindChat, "")
	assert.ErrorIs(t, err, ob_errors.ErrAlreadyExists)

	// A different kind is an independent handshake.
	_, err = f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	assert.NoError(t, err)
}

func TestRequestSendBlockedAfterDecline(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	require.NoError(t, err)

	_, err = f.requests.Respond(ctx, view.ID, b.ID, "decline")
	require.NoError(t, err)

	// The declined row still blocks a retry.
	_, err = f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	assert.ErrorIs(t, err, ob_errors.ErrAlreadyExists)
}

func TestRequestRespondAcceptChatCreatesConversation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	require.NoError(t, err)

	result, err := f.requests.Respond(ctx, view.ID, b.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, request.StatusAccepted, result.Request.Status)
	require.NotNil(t, result.Request.RespondedAt)
	require.NotNil(t, result.Chat)

	// The chat is the canonical conversation for the pair.
	same, err := f.chats.FindOrCreate(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Chat.ID, same.ID)

	// Sender is told about the acceptance.
	page, err := f.notifications.ListForUser(ctx, a.ID, 1, 10, true)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "bob accepted your chat request", page.Notifications[0].Message)
}

func TestRequestRespondAcceptFriendRecordsFriendship(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	require.NoError(t, err)

	result, err := f.requests.Respond(ctx, view.ID, b.ID, "accept")
	require.NoError(t, err)
	assert.Nil(t, result.Chat)

	friends, err := f.userRepo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, friends)
}

func TestRequestRespondGuards(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")
	c := createUser(t, f.db, "carol")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	require.NoError(t, err)

	_, err = f.requests.Respond(ctx, view.ID, b.ID, "maybe")
	assert.ErrorIs(t, err, ob_errors.ErrInvalidInput)

	// Only the receiver can respond; the sender cannot accept their own
	// request.
	_, err = f.requests.Respond(ctx, view.ID, a.ID, "accept")
	assert.ErrorIs(t, err, ob_errors.ErrForbidden)
	_, err = f.requests.Respond(ctx, view.ID, c.ID, "accept")
	assert.ErrorIs(t, err, ob_errors.ErrForbidden)

	_, err = f.requests.Respond(ctx, view.ID, b.ID, "decline")
	require.NoError(t, err)

	// Terminal states stay terminal.
	_, err = f.requests.Respond(ctx, view.ID, b.ID, "accept")
	assert.ErrorIs(t, err, ob_errors.ErrInvalidTransition)
}

func TestRequestRespondToSender(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	_, err := f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	require.NoError(t, err)

	result, err := f.requests.RespondToSender(ctx, a.ID, b.ID, request.KindFriend, "accept")
	require.NoError(t, err)
	assert.Equal(t, request.StatusAccepted, result.Request.Status)

	// No pending request left to address.
	_, err = f.requests.RespondToSender(ctx, a.ID, b.ID, request.KindFriend, "accept")
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}

func TestRequestCancel(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	_, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "")
	require.NoError(t, err)

	require.NoError(t, f.requests.Cancel(ctx, a.ID, b.ID, request.KindChat))

	status, err := f.requests.QueryStatus(ctx, a.ID, b.ID, request.KindChat)
	require.NoError(t, err)
	assert.Equal(t, RelationNone, status.Status)

	err = f.requests.Cancel(ctx, a.ID, b.ID, request.KindChat)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}

func TestRequestQueryStatus(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	status, err := f.requests.QueryStatus(ctx, a.ID, b.ID, request.KindFriend)
	require.NoError(t, err)
	assert.Equal(t, RelationNone, status.Status)
	assert.Nil(t, status.RequestID)

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	require.NoError(t, err)

	status, err = f.requests.QueryStatus(ctx, a.ID, b.ID, request.KindFriend)
	require.NoError(t, err)
	assert.Equal(t, RelationSent, status.Status)
	require.NotNil(t, status.RequestID)
	assert.Equal(t, view.ID, *status.RequestID)

	status, err = f.requests.QueryStatus(ctx, b.ID, a.ID, request.KindFriend)
	require.NoError(t, err)
	assert.Equal(t, RelationReceived, status.Status)

	_, err = f.requests.Respond(ctx, view.ID, b.ID, "accept")
	require.NoError(t, err)

	status, err = f.requests.QueryStatus(ctx, a.ID, b.ID, request.KindFriend)
	require.NoError(t, err)
	assert.Equal(t, RelationFriends, status.Status)
}

func TestRequestListReceivedAndSent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")
	c := createUser(t, f.db, "carol")

	_, err := f.requests.Send(ctx, a.ID, b.ID, request.KindChat, "from alice")
	require.NoError(t, err)
	_, err = f.requests.Send(ctx, c.ID, b.ID, request.KindChat, "from carol")
	require.NoError(t, err)

	received, err := f.requests.ListReceived(ctx, b.ID, request.KindChat)
	require.NoError(t, err)
	require.Len(t, received, 2)
	for _, view := range received {
		assert.Equal(t, b.ID, view.Receiver.ID)
		assert.NotEmpty(t, view.Sender.Name)
	}

	sent, err := f.requests.ListSent(ctx, a.ID, request.KindChat)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "from alice", sent[0].Message)
}

func TestRequestRemoveFriend(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a := createUser(t, f.db, "alice")
	b := createUser(t, f.db, "bob")

	view, err := f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	require.NoError(t, err)
	_, err = f.requests.Respond(ctx, view.ID, b.ID, "accept")
	require.NoError(t, err)

	require.NoError(t, f.requests.RemoveFriend(ctx, b.ID, a.ID))

	friends, err := f.userRepo.AreFriends(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, friends)

	// The accepted request is gone too, so a fresh request can be sent.
	status, err := f.requests.QueryStatus(ctx, a.ID, b.ID, request.KindFriend)
	require.NoError(t, err)
	assert.Equal(t, RelationNone, status.Status)
	_, err = f.requests.Send(ctx, a.ID, b.ID, request.KindFriend, "")
	assert.NoError(t, err)
}
