package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/gulfreturn/gulf-api/internal/services"
)

// AdminProvisionerInterface defines the methods used by handlers from AdminProvisioner
type AdminProvisionerInterface interface {
	CreateAdmin(ctx context.Context, secret string, fields services.AdminFields) (*services.AdminResult, error)
}

// AdminAuthenticatorInterface defines the methods used by handlers from AdminAuthenticator
type AdminAuthenticatorInterface interface {
	Login(ctx context.Context, secret, email, password string) (*models.User, *services.Session, error)
}

// TokenExchangerInterface defines the methods used by handlers from OAuthTokenExchanger
type TokenExchangerInterface interface {
	Provider(name models.AuthProvider) (oauth.Provider, bool)
	Exchange(ctx context.Context, provider models.AuthProvider, cred services.Credential) (*models.User, *services.Session, error)
}

// SessionServiceInterface defines the methods used by handlers from SessionIssuer
type SessionServiceInterface interface {
	Refresh(ctx context.Context, refreshToken string) (*models.User, *services.Session, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CountByRole(ctx context.Context, role models.Role) (int, error)
}
