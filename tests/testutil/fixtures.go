package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/database"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/gulfreturn/gulf-api/internal/services"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	users   *services.UserService
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db, users: services.NewUserService(db)}
}

// CreateUser creates a Google-federated test user linked to subject "google-<n>".
// WithLocalPassword turns it into a local account instead.
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:         fmt.Sprintf("user%d@example.com", f.counter),
		Username:      fmt.Sprintf("user%d", f.counter),
		FullName:      fmt.Sprintf("Test User %d", f.counter),
		Role:          models.RoleUser,
		Status:        models.StatusActive,
		EmailVerified: true,
		AuthProvider:  models.ProviderGoogle,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	var created *models.User
	var err error
	if user.AuthProvider == models.ProviderLocal {
		created, err = f.users.Create(ctx, user)
	} else {
		created, err = f.users.CreateFederated(ctx, user, fmt.Sprintf("%s-%d", user.AuthProvider, f.counter))
	}
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return created
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithUsername sets the user's username
func WithUsername(username string) UserOption {
	return func(u *models.User) {
		u.Username = username
	}
}

// WithRole sets the user's role
func WithRole(role models.Role) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// WithStatus sets the user's status
func WithStatus(status models.Status) UserOption {
	return func(u *models.User) {
		u.Status = status
	}
}

// WithLocalPassword makes the user a local account with the given bcrypt hash
func WithLocalPassword(hash string) UserOption {
	return func(u *models.User) {
		u.AuthProvider = models.ProviderLocal
		u.PasswordHash = &hash
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// GoogleUserInfo creates verified Google identity info
func GoogleUserInfo(subject, email, name string) *oauth.UserInfo {
	return &oauth.UserInfo{
		ID:            subject,
		Email:         email,
		EmailVerified: true,
		Name:          name,
		AvatarURL:     "https://example.com/avatar.png",
		Provider:      models.ProviderGoogle,
	}
}
