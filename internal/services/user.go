package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/database"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IdentityStore is the persistence boundary for users and their federated identity links.
// Uniqueness of email, username and (provider, subject) is enforced by the store itself;
// a losing insert reports ErrConflict.
type IdentityStore interface {
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	CreateFederated(ctx context.Context, user *models.User, subject string) (*models.User, error)
	LinkIdentity(ctx context.Context, userID uuid.UUID, provider models.AuthProvider, subject string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, picture *string) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIdentity(ctx context.Context, provider models.AuthProvider, subject string) (*models.User, error)
}

const userColumns = `id, email, username, password_hash, full_name, bio, role, status,
	email_verified, auth_provider, profile_picture, created_at, updated_at`

type UserService struct {
	db *database.DB
}

func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM users WHERE lower(email) = lower($1) OR lower(username) = lower($2)
		)
	`, email, username).Scan(&exists)
	return exists, err
}

func (s *UserService) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = lower($1))
	`, username).Scan(&exists)
	return exists, err
}

func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created, err := insertUser(ctx, s.db.Pool, user)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateFederated inserts the user and its identity link in one transaction.
func (s *UserService) CreateFederated(ctx context.Context, user *models.User, subject string) (*models.User, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := insertUser(ctx, tx, user)
	if err != nil {
		return nil, err
	}

	if err := insertIdentity(ctx, tx, created.ID, user.AuthProvider, subject); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}
	return created, nil
}

func (s *UserService) LinkIdentity(ctx context.Context, userID uuid.UUID, provider models.AuthProvider, subject string) error {
	return insertIdentity(ctx, s.db.Pool, userID, provider, subject)
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, picture *string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		UPDATE users SET full_name = $1, profile_picture = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		fullName, picture, id))
}

func (s *UserService) CountByRole(ctx context.Context, role models.Role) (int, error) {
	var count int
	err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role.String()).Scan(&count)
	return count, err
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *UserService) GetByIdentity(ctx context.Context, provider models.AuthProvider, subject string) (*models.User, error) {
	return scanUser(s.db.Pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = (SELECT user_id FROM federated_identities WHERE provider = $1 AND subject = $2)
	`, string(provider), subject))
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertUser(ctx context.Context, q queryer, user *models.User) (*models.User, error) {
	created, err := scanUser(q.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, full_name, bio, role, status,
			email_verified, auth_provider, profile_picture)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+userColumns,
		user.Email, user.Username, user.PasswordHash, user.FullName, user.Bio, user.Role.String(),
		string(user.Status), user.EmailVerified, string(user.AuthProvider), user.ProfilePicture,
	))
	if database.IsUniqueViolation(err) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func insertIdentity(ctx context.Context, e execer, userID uuid.UUID, provider models.AuthProvider, subject string) error {
	_, err := e.Exec(ctx, `
		INSERT INTO federated_identities (user_id, provider, subject)
		VALUES ($1, $2, $3)
	`, userID, string(provider), subject)
	if database.IsUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to link identity: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var role, status, provider string
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.FullName, &user.Bio,
		&role, &status, &user.EmailVerified, &provider, &user.ProfilePicture,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Status = models.Status(status)
	user.AuthProvider = models.AuthProvider(provider)
	return &user, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
