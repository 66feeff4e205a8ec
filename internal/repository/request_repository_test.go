package repository

import (
	"context"
	"testing"
	"time"

	"openbook-server/internal/domain/request"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingRequest(senderID, receiverID uuid.UUID, kind request.Kind) request.ConnectionRequest {
	return request.ConnectionRequest{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Kind:       kind,
		Status:     request.StatusPending,
		CreatedAt:  time.Now(),
	}
}

func TestRequestRepositoryCreateDuplicate(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	first := newPendingRequest(a.ID, b.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &first))

	second := newPendingRequest(a.ID, b.ID, request.KindChat)
	err := repo.Create(ctx, &second)
	assert.ErrorIs(t, err, ob_errors.ErrAlreadyExists)

	// Same pair with the other kind is a separate handshake.
	friend := newPendingRequest(a.ID, b.ID, request.KindFriend)
	assert.NoError(t, repo.Create(ctx, &friend))
}

func TestRequestRepositoryFindBetweenBothOrientations(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	req := newPendingRequest(a.ID, b.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &req))

	found, err := repo.FindBetween(ctx, a.ID, b.ID, request.KindChat)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)

	// Reversed arguments resolve the same row.
	found, err = repo.FindBetween(ctx, b.ID, a.ID, request.KindChat)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)

	_, err = repo.FindBetween(ctx, a.ID, b.ID, request.KindFriend)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}

func TestRequestRepositoryDeletePending(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	req := newPendingRequest(a.ID, b.ID, request.KindFriend)
	require.NoError(t, repo.Create(ctx, &req))

	// Wrong direction deletes nothing.
	err := repo.DeletePending(ctx, b.ID, a.ID, request.KindFriend)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)

	require.NoError(t, repo.DeletePending(ctx, a.ID, b.ID, request.KindFriend))

	_, err = repo.GetByID(ctx, req.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
}

func TestRequestRepositoryDeletePendingSkipsResolved(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")

	req := newPendingRequest(a.ID, b.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &req))

	req.Status = request.StatusAccepted
	require.NoError(t, repo.Update(ctx, req))

	err := repo.DeletePending(ctx, a.ID, b.ID, request.KindChat)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)

	kept, err := repo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusAccepted, kept.Status)
}

func TestRequestRepositoryListReceivedPendingOnly(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	pending := newPendingRequest(a.ID, b.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &pending))

	declined := newPendingRequest(c.ID, b.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &declined))
	declined.Status = request.StatusDeclined
	require.NoError(t, repo.Update(ctx, declined))

	received, err := repo.ListReceivedPending(ctx, b.ID, request.KindChat)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, pending.ID, received[0].ID)

	// Sent listing includes resolved requests.
	sent, err := repo.ListSent(ctx, c.ID, request.KindChat)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, request.StatusDeclined, sent[0].Status)
}

func TestRequestRepositoryDeleteForUser(t *testing.T) {
	db := newTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()

	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	out := newPendingRequest(a.ID, b.ID, request.KindChat)
	in := newPendingRequest(c.ID, a.ID, request.KindFriend)
	unrelated := newPendingRequest(b.ID, c.ID, request.KindChat)
	require.NoError(t, repo.Create(ctx, &out))
	require.NoError(t, repo.Create(ctx, &in))
	require.NoError(t, repo.Create(ctx, &unrelated))

	require.NoError(t, repo.DeleteForUser(ctx, a.ID))

	_, err := repo.GetByID(ctx, out.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
	_, err = repo.GetByID(ctx, in.ID)
	assert.ErrorIs(t, err, ob_errors.ErrNotFound)
	_, err = repo.GetByID(ctx, unrelated.ID)
	assert.NoError(t, err)
}
