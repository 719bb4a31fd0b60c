package services

import (
	"context"
	"errors"
	"strings"

	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/security"
	"github.com/gulfreturn/gulf-api/internal/validation"
	"github.com/sirupsen/logrus"
)

const defaultAdminBio = "System Administrator"

type AdminFields struct {
	validation.Credentials
	Bio string
}

type AdminResult struct {
	User       *models.User
	AdminCount int
}

// AdminProvisioner creates administrator accounts behind the admin secret.
type AdminProvisioner struct {
	gate      *security.SecretGate
	validator *validation.CredentialValidator
	hasher    *security.PasswordHasher
	store     IdentityStore
	log       *logrus.Logger
}

func NewAdminProvisioner(
	gate *security.SecretGate,
	validator *validation.CredentialValidator,
	hasher *security.PasswordHasher,
	store IdentityStore,
	log *logrus.Logger,
) *AdminProvisioner {
	return &AdminProvisioner{gate: gate, validator: validator, hasher: hasher, store: store, log: log}
}

func (p *AdminProvisioner) CreateAdmin(ctx context.Context, secret string, fields AdminFields) (*AdminResult, error) {
	// Nothing is read from the store before the secret checks out.
	if !p.gate.Verify(secret) {
		p.log.Warn("admin creation rejected: secret mismatch")
		return nil, ErrForbidden
	}

	creds := fields.Credentials.Normalize()
	if result := p.validator.Validate(creds); !result.Valid() {
		return nil, &ValidationError{Fields: result.Errors}
	}

	exists, err := p.store.ExistsByEmailOrUsername(ctx, creds.Email, creds.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConflict
	}

	hash, err := p.hasher.Hash(creds.Password)
	if err != nil {
		return nil, err
	}

	bio := strings.TrimSpace(fields.Bio)
	if bio == "" {
		bio = defaultAdminBio
	}

	user, err := p.store.Create(ctx, &models.User{
		Email:         creds.Email,
		Username:      creds.Username,
		PasswordHash:  &hash,
		FullName:      creds.FullName,
		Bio:           bio,
		Role:          models.RoleAdmin,
		Status:        models.StatusActive,
		EmailVerified: true,
		AuthProvider:  models.ProviderLocal,
	})
	if err != nil {
		return nil, err
	}

	count, err := p.store.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	p.log.WithFields(logrus.Fields{"user_id": user.ID, "admin_count": count}).Info("admin user created")

	return &AdminResult{User: user, AdminCount: count}, nil
}

// AdminAuthenticator signs in moderators and admins with a local password, behind the admin secret.
type AdminAuthenticator struct {
	gate     *security.SecretGate
	hasher   *security.PasswordHasher
	store    IdentityStore
	sessions *SessionIssuer
	log      *logrus.Logger
}

func NewAdminAuthenticator(
	gate *security.SecretGate,
	hasher *security.PasswordHasher,
	store IdentityStore,
	sessions *SessionIssuer,
	log *logrus.Logger,
) *AdminAuthenticator {
	return &AdminAuthenticator{gate: gate, hasher: hasher, store: store, sessions: sessions, log: log}
}

// Login returns ErrUnauthorized for an unknown email or a wrong password alike. The password is
// checked before the role so a caller without it learns nothing about the account.
func (a *AdminAuthenticator) Login(ctx context.Context, secret, email, password string) (*models.User, *Session, error) {
	if !a.gate.Verify(secret) {
		a.log.Warn("admin login rejected: secret mismatch")
		return nil, nil, ErrForbidden
	}

	user, err := a.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrUnauthorized
	}
	if err != nil {
		return nil, nil, err
	}

	// Federated-only accounts have no password to check.
	if user.PasswordHash == nil || !a.hasher.Verify(password, *user.PasswordHash) {
		a.log.WithField("user_id", user.ID).Warn("admin login rejected: bad password")
		return nil, nil, ErrUnauthorized
	}
	if !user.Role.AtLeast(models.RoleModerator) {
		a.log.WithField("user_id", user.ID).Warn("admin login rejected: insufficient role")
		return nil, nil, ErrInsufficientRole
	}
	if !user.IsActive() {
		return nil, nil, ErrAccountInactive
	}

	session, err := a.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	a.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role.String()}).Info("admin logged in")
	return user, session, nil
}
