package services

import (
	"context"
	"testing"
	"time"

	"openbook-server/config"
	"openbook-server/internal/repository"
	ob_errors "openbook-server/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (*AuthService, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiryMin: 60}
	return NewAuthService(repository.NewUserRepository(f.db), cfg), f
}

func TestAuthLogin(t *testing.T) {
	auth, f := newAuthFixture(t)
	ctx := context.Background()

	u := createUser(t, f.db, "alice")
	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&u).Update("password_hash", string(hash)).Error)

	resp, err := auth.Login(ctx, u.Email, "Sup3rSecret!")
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), resp.UserID)
	assert.Equal(t, "alice", resp.Name)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	claims, err := auth.ParseAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)
}

func TestAuthLoginRejections(t *testing.T) {
	auth, f := newAuthFixture(t)
	ctx := context.Background()

	u := createUser(t, f.db, "alice")
	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3rSecret!"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&u).Update("password_hash", string(hash)).Error)

	_, err = auth.Login(ctx, "", "Sup3rSecret!")
	assert.ErrorIs(t, err, ob_errors.ErrInvalidInput)

	_, err = auth.Login(ctx, u.Email, "wrong password")
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)

	// Unknown accounts fail the same way as bad passwords.
	_, err = auth.Login(ctx, "nobody@test.com", "Sup3rSecret!")
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)
}

func TestAuthTokenRoundTrip(t *testing.T) {
	auth, _ := newAuthFixture(t)

	id := uuid.New()
	token, err := auth.IssueAccessToken(id)
	require.NoError(t, err)

	claims, err := auth.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestAuthTokenRejectsTampering(t *testing.T) {
	auth, _ := newAuthFixture(t)

	_, err := auth.ParseAccessToken("")
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)

	_, err = auth.ParseAccessToken("not.a.token")
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)

	token, err := auth.IssueAccessToken(uuid.New())
	require.NoError(t, err)
	_, err = auth.ParseAccessToken(token + "x")
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)

	// A token minted with a different secret never validates.
	otherCfg := &config.Config{JWTSecret: "other-secret", JWTExpiryMin: 60}
	other := NewAuthService(nil, otherCfg)
	foreign, err := other.IssueAccessToken(uuid.New())
	require.NoError(t, err)
	_, err = auth.ParseAccessToken(foreign)
	assert.ErrorIs(t, err, ob_errors.ErrUnauthorized)
}

func TestAuthUserContext(t *testing.T) {
	ctx := context.Background()

	_, ok := UserIDFromContext(ctx)
	assert.False(t, ok)

	id := uuid.New()
	ctx = WithUserContext(ctx, id)
	got, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)
}
