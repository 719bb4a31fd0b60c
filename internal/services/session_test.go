package services

import (
	"context"
	"testing"
	"time"

	"github.com/gulfreturn/gulf-api/internal/logging"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionIssuer(t *testing.T) (*SessionIssuer, *memoryStore, *memoryTokenStore) {
	t.Helper()
	users := newMemoryStore()
	tokens := newMemoryTokenStore()
	jwtService := NewJWTService("test-secret", 30*time.Minute, 7*24*time.Hour)
	return NewSessionIssuer(jwtService, tokens, users, logging.Discard()), users, tokens
}

func createActiveUser(t *testing.T, store *memoryStore, role models.Role) *models.User {
	t.Helper()
	user, err := store.Create(context.Background(), &models.User{
		Email:         "member@example.com",
		Username:      "member",
		Role:          role,
		Status:        models.StatusActive,
		EmailVerified: true,
		AuthProvider:  models.ProviderGoogle,
	})
	require.NoError(t, err)
	return user
}

func TestSessionIssuer_Issue(t *testing.T) {
	issuer, users, tokens := setupSessionIssuer(t)
	user := createActiveUser(t, users, models.RoleModerator)

	session, err := issuer.Issue(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, int64(1800), session.ExpiresIn)
	assert.Equal(t, 1, tokens.count())

	claims, err := issuer.Authenticate(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleModerator, claims.Role)
}

func TestSessionIssuer_Authenticate_Invalid(t *testing.T) {
	issuer, _, _ := setupSessionIssuer(t)

	_, err := issuer.Authenticate("garbage")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionIssuer_Refresh_Rotates(t *testing.T) {
	issuer, users, tokens := setupSessionIssuer(t)
	user := createActiveUser(t, users, models.RoleUser)
	ctx := context.Background()

	first, err := issuer.Issue(ctx, user)
	require.NoError(t, err)

	refreshed, second, err := issuer.Refresh(ctx, first.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, user.ID, refreshed.ID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, tokens.count())

	_, _, err = issuer.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionIssuer_Refresh_RejectsAccessToken(t *testing.T) {
	issuer, users, _ := setupSessionIssuer(t)
	user := createActiveUser(t, users, models.RoleUser)

	session, err := issuer.Issue(context.Background(), user)
	require.NoError(t, err)

	_, _, err = issuer.Refresh(context.Background(), session.AccessToken)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSessionIssuer_Refresh_InactiveUser(t *testing.T) {
	issuer, users, tokens := setupSessionIssuer(t)
	user := createActiveUser(t, users, models.RoleUser)
	ctx := context.Background()

	session, err := issuer.Issue(ctx, user)
	require.NoError(t, err)
	users.setStatus(user.ID, models.StatusSuspended)

	_, _, err = issuer.Refresh(ctx, session.RefreshToken)

	assert.ErrorIs(t, err, ErrAccountInactive)
	assert.Zero(t, tokens.count())
}

func TestSessionIssuer_Revoke(t *testing.T) {
	issuer, users, tokens := setupSessionIssuer(t)
	user := createActiveUser(t, users, models.RoleUser)
	ctx := context.Background()

	session, err := issuer.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(ctx, session.RefreshToken))
	assert.Zero(t, tokens.count())

	// Revoking twice is harmless
	require.NoError(t, issuer.Revoke(ctx, session.RefreshToken))

	_, _, err = issuer.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
