package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gulfreturn/gulf-api/internal/config"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/sirupsen/logrus"
)

const (
	maxUsernameLen      = 20
	minUsernameLen      = 3
	maxUsernameSuffix   = 9999
	usernameBaseMaxSize = maxUsernameLen - 4
)

// Credential is what a client presents to prove a provider identity. Exactly one field is used,
// in the order IDToken, AccessToken, Code.
type Credential struct {
	IDToken     string
	AccessToken string
	Code        string
}

func (c Credential) Empty() bool {
	return c.IDToken == "" && c.AccessToken == "" && c.Code == ""
}

// OAuthTokenExchanger turns a provider credential into a local user and a session.
type OAuthTokenExchanger struct {
	providers  map[models.AuthProvider]oauth.Provider
	store      IdentityStore
	sessions   *SessionIssuer
	linkPolicy string
	log        *logrus.Logger
}

func NewOAuthTokenExchanger(
	providers []oauth.Provider,
	store IdentityStore,
	sessions *SessionIssuer,
	linkPolicy string,
	log *logrus.Logger,
) *OAuthTokenExchanger {
	byName := make(map[models.AuthProvider]oauth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthTokenExchanger{
		providers:  byName,
		store:      store,
		sessions:   sessions,
		linkPolicy: linkPolicy,
		log:        log,
	}
}

func (e *OAuthTokenExchanger) Provider(name models.AuthProvider) (oauth.Provider, bool) {
	p, ok := e.providers[name]
	return p, ok
}

func (e *OAuthTokenExchanger) Exchange(ctx context.Context, provider models.AuthProvider, cred Credential) (*models.User, *Session, error) {
	info, err := e.verify(ctx, provider, cred)
	if err != nil {
		return nil, nil, err
	}

	user, err := e.resolve(ctx, info)
	if err != nil {
		return nil, nil, err
	}

	if !user.IsActive() {
		return nil, nil, ErrAccountInactive
	}

	session, err := e.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	e.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": provider}).Info("federated sign-in")
	return user, session, nil
}

func (e *OAuthTokenExchanger) verify(ctx context.Context, provider models.AuthProvider, cred Credential) (*oauth.UserInfo, error) {
	p, ok := e.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %s not configured", ErrNotFound, provider)
	}

	if cred.Empty() {
		return nil, fmt.Errorf("%w: no credential presented", ErrUnauthorized)
	}

	var info *oauth.UserInfo
	var err error
	switch {
	case cred.IDToken != "":
		verifier, ok := p.(oauth.IDTokenVerifier)
		if !ok {
			return nil, fmt.Errorf("%w: %s does not issue id tokens", ErrUnauthorized, provider)
		}
		info, err = verifier.VerifyIDToken(ctx, cred.IDToken)
	case cred.AccessToken != "":
		info, err = p.UserInfoFromAccessToken(ctx, cred.AccessToken)
	default:
		info, err = p.ExchangeCode(ctx, cred.Code)
	}

	if errors.Is(err, oauth.ErrProviderUnavailable) {
		e.log.WithError(err).WithField("provider", provider).Warn("identity provider unavailable")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if !info.EmailVerified {
		return nil, fmt.Errorf("%w: provider email not verified", ErrUnauthorized)
	}
	return info, nil
}

func (e *OAuthTokenExchanger) resolve(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	user, err := e.store.GetByIdentity(ctx, info.Provider, info.ID)
	if err == nil {
		// A local account linked to a provider keeps its own profile.
		if user.AuthProvider != info.Provider {
			return user, nil
		}
		return e.refreshProfile(ctx, user, info)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(info.Email))

	existing, err := e.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return e.linkExisting(ctx, existing, info)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	username, err := e.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}

	return e.store.CreateFederated(ctx, &models.User{
		Email:          email,
		Username:       username,
		FullName:       info.Name,
		Role:           models.RoleUser,
		Status:         models.StatusActive,
		EmailVerified:  true,
		AuthProvider:   info.Provider,
		ProfilePicture: nullableString(info.AvatarURL),
	}, info.ID)
}

func (e *OAuthTokenExchanger) linkExisting(ctx context.Context, user *models.User, info *oauth.UserInfo) (*models.User, error) {
	switch {
	case user.AuthProvider == info.Provider:
		if err := e.store.LinkIdentity(ctx, user.ID, info.Provider, info.ID); err != nil {
			return nil, err
		}
		return e.refreshProfile(ctx, user, info)

	case user.AuthProvider == models.ProviderLocal && e.linkPolicy == config.LinkPolicyLink:
		if err := e.store.LinkIdentity(ctx, user.ID, info.Provider, info.ID); err != nil {
			return nil, err
		}
		e.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": info.Provider}).Info("linked federated identity to local account")
		return user, nil

	default:
		return nil, ErrIdentityConflict
	}
}

func (e *OAuthTokenExchanger) refreshProfile(ctx context.Context, user *models.User, info *oauth.UserInfo) (*models.User, error) {
	fullName := info.Name
	if fullName == "" {
		fullName = user.FullName
	}
	picture := nullableString(info.AvatarURL)
	if picture == nil {
		picture = user.ProfilePicture
	}
	return e.store.UpdateProfile(ctx, user.ID, fullName, picture)
}

func (e *OAuthTokenExchanger) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := usernameBase(email)
	candidate := base
	for counter := 1; counter <= maxUsernameSuffix; counter++ {
		exists, err := e.store.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(counter)
	}
	return "", fmt.Errorf("%w: no free username for %s", ErrConflict, base)
}

// usernameBase maps an email local part onto the username charset, leaving room for a numeric suffix.
func usernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.', r == '-', r == '+':
			b.WriteByte('_')
		}
	}

	base := b.String()
	if len(base) > usernameBaseMaxSize {
		base = base[:usernameBaseMaxSize]
	}
	if len(base) < minUsernameLen {
		base = "user_" + base
	}
	return base
}
