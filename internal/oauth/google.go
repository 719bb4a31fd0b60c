package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gulfreturn/gulf-api/internal/config"
	"github.com/gulfreturn/gulf-api/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/idtoken"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

type idTokenValidator interface {
	Validate(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
}

type GoogleProvider struct {
	config      *oauth2.Config
	httpClient  *http.Client
	userInfoURL string
	validator   idTokenValidator
	tokenInfo   *googleoauth.Service
}

func NewGoogleProvider(cfg config.OAuthConfig, timeout time.Duration) *GoogleProvider {
	httpClient := newProviderClient(timeout, nil)
	p := &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		httpClient:  httpClient,
		userInfoURL: googleUserInfoURL,
	}

	if v, err := idtoken.NewValidator(context.Background(), option.WithHTTPClient(httpClient)); err == nil {
		p.validator = v
	}
	if svc, err := newTokenInfoService(httpClient, ""); err == nil {
		p.tokenInfo = svc
	}

	return p
}

// newTokenInfoService builds the tokeninfo client; endpoint overrides the Google API base URL when set.
func newTokenInfoService(httpClient *http.Client, endpoint string) (*googleoauth.Service, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	return googleoauth.NewService(context.Background(), opts...)
}

func (p *GoogleProvider) Name() models.AuthProvider {
	return models.ProviderGoogle
}

func (p *GoogleProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	// Tokens from our own code exchange are issued to our client by construction.
	return p.userInfo(ctx, token.AccessToken)
}

// UserInfoFromAccessToken resolves a caller-supplied access token. The token must have been
// issued to this client; userinfo alone would accept a token minted for any Google app.
func (p *GoogleProvider) UserInfoFromAccessToken(ctx context.Context, accessToken string) (*UserInfo, error) {
	if err := p.checkAudience(ctx, accessToken); err != nil {
		return nil, err
	}
	return p.userInfo(ctx, accessToken)
}

func (p *GoogleProvider) checkAudience(ctx context.Context, accessToken string) error {
	if p.tokenInfo == nil {
		return fmt.Errorf("%w: tokeninfo client not initialized", ErrProviderUnavailable)
	}

	info, err := p.tokenInfo.Tokeninfo().AccessToken(accessToken).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return classifyStatus("google tokeninfo", apiErr.Code)
		}
		return classifyTransportError(err)
	}

	clientID := p.config.ClientID
	if clientID == "" || (info.Audience != clientID && info.IssuedTo != clientID) {
		return fmt.Errorf("%w: access token issued to another client", ErrInvalidCredential)
	}
	return nil
}

func (p *GoogleProvider) userInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("google userinfo", resp.StatusCode)
	}

	var gUser struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user info", ErrInvalidCredential)
	}

	return requireIdentity(&UserInfo{
		ID:            gUser.ID,
		Email:         gUser.Email,
		EmailVerified: gUser.VerifiedEmail,
		Name:          gUser.Name,
		AvatarURL:     gUser.Picture,
		Provider:      models.ProviderGoogle,
	})
}

// VerifyIDToken checks signature, audience, expiry and issuer of a Google ID token.
func (p *GoogleProvider) VerifyIDToken(ctx context.Context, idToken string) (*UserInfo, error) {
	if p.validator == nil {
		return nil, fmt.Errorf("%w: id token validator not initialized", ErrProviderUnavailable)
	}
	if strings.Count(idToken, ".") != 2 {
		return nil, fmt.Errorf("%w: malformed id token", ErrInvalidCredential)
	}

	payload, err := p.validator.Validate(ctx, idToken, p.config.ClientID)
	if err != nil {
		// A non-200 cert response only surfaces as text.
		if strings.Contains(err.Error(), "unable to retrieve cert") {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return nil, classifyTransportError(err)
	}

	if !googleIssuers[payload.Issuer] {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidCredential)
	}

	return requireIdentity(&UserInfo{
		ID:            payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		Name:          claimString(payload.Claims, "name"),
		AvatarURL:     claimString(payload.Claims, "picture"),
		Provider:      models.ProviderGoogle,
	})
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Google encodes email_verified as a bool, older tokens as the string "true".
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}
