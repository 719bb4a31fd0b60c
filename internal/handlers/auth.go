package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/gulfreturn/gulf-api/internal/validation"
	"github.com/gulfreturn/gulf-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/sirupsen/logrus"
)

const (
	stateTTL       = 10 * time.Minute
	requestTimeout = 30 * time.Second
)

type AuthHandler struct {
	admins    AdminProvisionerInterface
	logins    AdminAuthenticatorInterface
	exchanger TokenExchangerInterface
	sessions  SessionServiceInterface
	states    oauth.StateStore
	log       *logrus.Logger
}

func NewAuthHandler(
	admins AdminProvisionerInterface,
	logins AdminAuthenticatorInterface,
	exchanger TokenExchangerInterface,
	sessions SessionServiceInterface,
	states oauth.StateStore,
	log *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		admins:    admins,
		logins:    logins,
		exchanger: exchanger,
		sessions:  sessions,
		states:    states,
		log:       log,
	}
}

func (h *AuthHandler) CreateAdmin(c *drift.Context) {
	var req dto.CreateAdminRequest
	if err := c.BindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := h.admins.CreateAdmin(ctx, req.AdminSecret, services.AdminFields{
		Credentials: validation.Credentials{
			Email:    req.Email,
			Username: req.Username,
			Password: req.Password,
			FullName: req.FullName,
		},
		Bio: req.Bio,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusCreated, dto.CreateAdminResponse{
		Message: fmt.Sprintf("Admin user created successfully. Total admin users: %d", result.AdminCount),
		User:    dto.NewUserResponse(result.User),
	})
}

// AdminLogin signs in a moderator or admin with email and password, gated by the admin secret.
func (h *AuthHandler) AdminLogin(c *drift.Context) {
	var req dto.AdminLoginRequest
	if err := c.BindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, session, err := h.logins.Login(ctx, req.AdminSecret, req.Email, req.Password)
	if errors.Is(err, services.ErrUnauthorized) {
		writeDetail(c, http.StatusUnauthorized, "Invalid admin credentials")
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.AuthResponse{
		Message:      "Admin login successful",
		User:         dto.NewUserResponse(user),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
	})
}

// GoogleToken signs in with a Google ID token (credential) or a Google access token.
func (h *AuthHandler) GoogleToken(c *drift.Context) {
	var req dto.GoogleTokenRequest
	if err := c.BindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Credential == "" && req.AccessToken == "" {
		writeDetail(c, http.StatusBadRequest, "Either credential (ID token) or access_token is required")
		return
	}

	h.exchange(c, models.ProviderGoogle, services.Credential{
		IDToken:     req.Credential,
		AccessToken: req.AccessToken,
	})
}

// Login starts the redirect flow for provider.
func (h *AuthHandler) Login(provider models.AuthProvider) drift.HandlerFunc {
	return func(c *drift.Context) {
		p, ok := h.exchanger.Provider(provider)
		if !ok {
			writeDetail(c, http.StatusNotFound, "Provider not configured")
			return
		}

		state, err := oauth.GenerateState()
		if err != nil {
			writeError(c, h.log, fmt.Errorf("failed to generate state: %w", err))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := h.states.Save(ctx, state, provider, stateTTL); err != nil {
			writeError(c, h.log, fmt.Errorf("failed to store state: %w", err))
			return
		}

		_ = c.JSON(http.StatusOK, dto.LoginURLResponse{
			AuthURL: p.GetConsentURL(state),
			State:   state,
			Message: fmt.Sprintf("Redirect user to this URL for %s authentication", displayName(provider)),
		})
	}
}

// Callback completes the redirect flow with the authorization code and the state issued by Login.
func (h *AuthHandler) Callback(provider models.AuthProvider) drift.HandlerFunc {
	return func(c *drift.Context) {
		var req dto.OAuthCallbackRequest
		if err := c.BindJSON(&req); err != nil {
			writeDetail(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Code == "" {
			writeDetail(c, http.StatusBadRequest, "Authorization code is required")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if req.State == "" {
			writeDetail(c, http.StatusBadRequest, "Invalid or expired state")
			return
		}
		valid, err := h.states.Consume(ctx, req.State, provider)
		if err != nil {
			writeError(c, h.log, fmt.Errorf("failed to check state: %w", err))
			return
		}
		if !valid {
			writeDetail(c, http.StatusBadRequest, "Invalid or expired state")
			return
		}

		h.exchange(c, provider, services.Credential{Code: req.Code})
	}
}

func (h *AuthHandler) exchange(c *drift.Context, provider models.AuthProvider, cred services.Credential) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user, session, err := h.exchanger.Exchange(ctx, provider, cred)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.AuthResponse{
		Message:      fmt.Sprintf("%s authentication successful", displayName(provider)),
		User:         dto.NewUserResponse(user),
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
	})
}

func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeDetail(c, http.StatusBadRequest, "refresh_token is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	_, session, err := h.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	_ = c.JSON(http.StatusOK, dto.TokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresIn:    session.ExpiresIn,
	})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken != "" {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := h.sessions.Revoke(ctx, req.RefreshToken); err != nil {
			writeError(c, h.log, err)
			return
		}
	}

	_ = c.JSON(http.StatusOK, dto.MessageResponse{Message: "Successfully logged out"})
}

func displayName(provider models.AuthProvider) string {
	switch provider {
	case models.ProviderGoogle:
		return "Google"
	case models.ProviderGitHub:
		return "GitHub"
	default:
		return string(provider)
	}
}
