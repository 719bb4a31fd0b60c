package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const TokenTypeBearer = "bearer"

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshTokenStore keeps hashes of issued refresh tokens.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type SessionIssuer struct {
	jwt    *JWTService
	tokens RefreshTokenStore
	users  userGetter
	log    *logrus.Logger
}

func NewSessionIssuer(jwtService *JWTService, tokens RefreshTokenStore, users userGetter, log *logrus.Logger) *SessionIssuer {
	return &SessionIssuer{jwt: jwtService, tokens: tokens, users: users, log: log}
}

func (s *SessionIssuer) Issue(ctx context.Context, user *models.User) (*Session, error) {
	pair, err := s.jwt.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	expiresAt := s.jwt.now().Add(s.jwt.RefreshExpiry())
	if err := s.tokens.StoreRefreshToken(ctx, user.ID, HashToken(pair.RefreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair issued.
func (s *SessionIssuer) Refresh(ctx context.Context, refreshToken string) (*models.User, *Session, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	tokenHash := HashToken(refreshToken)
	storedUserID, err := s.tokens.ValidateRefreshToken(ctx, tokenHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: refresh token revoked", ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if storedUserID != claims.UserID {
		return nil, nil, fmt.Errorf("%w: refresh token owner mismatch", ErrUnauthorized)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	}
	if err != nil {
		return nil, nil, err
	}

	if !user.IsActive() {
		if err := s.tokens.RevokeAllUserTokens(ctx, user.ID); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to revoke sessions of inactive user")
		}
		return nil, nil, ErrAccountInactive
	}

	revoked, err := s.tokens.RevokeRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		return nil, nil, fmt.Errorf("%w: refresh token already used", ErrUnauthorized)
	}

	session, err := s.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Revoke ends the session bound to refreshToken. Unknown tokens are ignored.
func (s *SessionIssuer) Revoke(ctx context.Context, refreshToken string) error {
	if _, err := s.tokens.RevokeRefreshToken(ctx, HashToken(refreshToken)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Authenticate validates an access token and returns its claims.
func (s *SessionIssuer) Authenticate(accessToken string) (*Claims, error) {
	claims, err := s.jwt.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return claims, nil
}
