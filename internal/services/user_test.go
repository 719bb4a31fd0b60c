package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/database"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{
	"id", "email", "username", "password_hash", "full_name", "bio", "role", "status",
	"email_verified", "auth_provider", "profile_picture", "created_at", "updated_at",
}

func setupUserService(t *testing.T) (*UserService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewUserService(db), mock
}

func adminRow(id uuid.UUID, hash *string, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(userRowColumns).AddRow(
		id, "admin@company.com", "admin_user", hash, "System Administrator", "System Administrator",
		"admin", "active", true, "local", (*string)(nil), now, now,
	)
}

func TestUserService_Create(t *testing.T) {
	svc, mock := setupUserService(t)
	ctx := context.Background()
	hash := "$2a$10$hash"
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("admin@company.com", "admin_user", pgxmock.AnyArg(), "System Administrator", "System Administrator",
			"admin", "active", true, "local", pgxmock.AnyArg()).
		WillReturnRows(adminRow(userID, &hash, now))

	user, err := svc.Create(ctx, &models.User{
		Email: "admin@company.com", Username: "admin_user", PasswordHash: &hash,
		FullName: "System Administrator", Bio: "System Administrator",
		Role: models.RoleAdmin, Status: models.StatusActive, EmailVerified: true, AuthProvider: models.ProviderLocal,
	})

	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.ProviderLocal, user.AuthProvider)
	assert.True(t, user.EmailVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_Create_UniqueViolation(t *testing.T) {
	svc, mock := setupUserService(t)
	hash := "$2a$10$hash"

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email_lower"})

	_, err := svc.Create(context.Background(), &models.User{
		Email: "admin@company.com", Username: "admin_user", PasswordHash: &hash,
		Role: models.RoleAdmin, Status: models.StatusActive, AuthProvider: models.ProviderLocal,
	})

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_ExistsByEmailOrUsername(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("admin@company.com", "admin_user").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := svc.ExistsByEmailOrUsername(context.Background(), "admin@company.com", "admin_user")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_CountByRole(t *testing.T) {
	svc, mock := setupUserService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE role`).
		WithArgs("admin").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := svc.CountByRole(context.Background(), models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByEmail(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()
	hash := "$2a$10$hash"

	mock.ExpectQuery(`SELECT .+ FROM users WHERE lower\(email\)`).
		WithArgs("admin@company.com").
		WillReturnRows(adminRow(id, &hash, time.Now()))

	user, err := svc.GetByEmail(context.Background(), "admin@company.com")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	require.NotNil(t, user.PasswordHash)
	assert.Equal(t, hash, *user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_GetByIdentity(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()
	now := time.Now()
	picture := "https://lh3.googleusercontent.com/jane"

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		id, "jane@example.com", "jane", (*string)(nil), "Jane Doe", "",
		"user", "active", true, "google", &picture, now, now,
	)
	mock.ExpectQuery(`SELECT .+ FROM users\s+WHERE id = \(SELECT user_id FROM federated_identities`).
		WithArgs("google", "sub-1").
		WillReturnRows(rows)

	user, err := svc.GetByIdentity(context.Background(), models.ProviderGoogle, "sub-1")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Nil(t, user.PasswordHash)
	assert.Equal(t, models.ProviderGoogle, user.AuthProvider)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_CreateFederated(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		id, "jane@example.com", "jane", (*string)(nil), "Jane Doe", "",
		"user", "active", true, "google", (*string)(nil), now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO federated_identities`).
		WithArgs(id, "google", "sub-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	user, err := svc.CreateFederated(context.Background(), &models.User{
		Email: "jane@example.com", Username: "jane", FullName: "Jane Doe",
		Role: models.RoleUser, Status: models.StatusActive, EmailVerified: true, AuthProvider: models.ProviderGoogle,
	}, "sub-1")

	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_CreateFederated_IdentityTakenRollsBack(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		id, "jane@example.com", "jane", (*string)(nil), "Jane Doe", "",
		"user", "active", true, "google", (*string)(nil), now, now,
	)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO federated_identities`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.CreateFederated(context.Background(), &models.User{
		Email: "jane@example.com", Username: "jane",
		Role: models.RoleUser, Status: models.StatusActive, EmailVerified: true, AuthProvider: models.ProviderGoogle,
	}, "sub-1")

	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, mock := setupUserService(t)
	id := uuid.New()
	now := time.Now()
	picture := "https://lh3.googleusercontent.com/new"

	rows := pgxmock.NewRows(userRowColumns).AddRow(
		id, "jane@example.com", "jane", (*string)(nil), "Jane Renamed", "",
		"user", "active", true, "google", &picture, now, now,
	)
	mock.ExpectQuery(`UPDATE users SET full_name = .+, profile_picture`).
		WithArgs("Jane Renamed", &picture, id).
		WillReturnRows(rows)

	user, err := svc.UpdateProfile(context.Background(), id, "Jane Renamed", &picture)

	require.NoError(t, err)
	assert.Equal(t, "Jane Renamed", user.FullName)
	require.NotNil(t, user.ProfilePicture)
	assert.Equal(t, picture, *user.ProfilePicture)
	assert.NoError(t, mock.ExpectationsWereMet())
}
