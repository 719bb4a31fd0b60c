package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gulfreturn/gulf-api/internal/config"
	"github.com/gulfreturn/gulf-api/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIURL = "https://api.github.com"

type GitHubProvider struct {
	config     *oauth2.Config
	httpClient *http.Client
	apiURL     string
}

func NewGitHubProvider(cfg config.OAuthConfig, timeout time.Duration) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"user:email", "read:user"},
			Endpoint:     github.Endpoint,
		},
		httpClient: newProviderClient(timeout, nil),
		apiURL:     githubAPIURL,
	}
}

func (p *GitHubProvider) Name() models.AuthProvider {
	return models.ProviderGitHub
}

func (p *GitHubProvider) GetConsentURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *GitHubProvider) ExchangeCode(ctx context.Context, code string) (*UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(err)
	}

	return p.userInfo(ctx, token.AccessToken)
}

// UserInfoFromAccessToken resolves a caller-supplied access token after confirming with
// GitHub that it belongs to this OAuth app.
func (p *GitHubProvider) UserInfoFromAccessToken(ctx context.Context, accessToken string) (*UserInfo, error) {
	if err := p.checkToken(ctx, accessToken); err != nil {
		return nil, err
	}
	return p.userInfo(ctx, accessToken)
}

// checkToken calls the OAuth app token check endpoint, authenticated as the app itself.
// GitHub answers 404 for tokens that are revoked or were issued to a different app.
func (p *GitHubProvider) checkToken(ctx context.Context, accessToken string) error {
	body, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return fmt.Errorf("failed to encode github token check: %w", err)
	}

	endpoint := p.apiURL + "/applications/" + url.PathEscape(p.config.ClientID) + "/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build github token check: %w", err)
	}
	req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: access token not issued to this app", ErrInvalidCredential)
	default:
		return classifyStatus("github token check", resp.StatusCode)
	}

	var check struct {
		App struct {
			ClientID string `json:"client_id"`
		} `json:"app"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&check); err != nil {
		return fmt.Errorf("%w: failed to decode github token check", ErrInvalidCredential)
	}
	if check.App.ClientID != p.config.ClientID {
		return fmt.Errorf("%w: access token issued to another app", ErrInvalidCredential)
	}
	return nil
}

func (p *GitHubProvider) userInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	var ghUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := p.get(ctx, accessToken, "/user", &ghUser); err != nil {
		return nil, err
	}

	// GitHub's /user email is whatever the user made public; only /user/emails reports verification.
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.get(ctx, accessToken, "/user/emails", &emails); err != nil {
		return nil, err
	}

	var email string
	var verified bool
	for _, e := range emails {
		if e.Primary {
			email, verified = e.Email, e.Verified
			break
		}
	}
	if !verified {
		for _, e := range emails {
			if e.Verified {
				email, verified = e.Email, true
				break
			}
		}
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}

	id := ""
	if ghUser.ID != 0 {
		id = fmt.Sprintf("%d", ghUser.ID)
	}

	return requireIdentity(&UserInfo{
		ID:            id,
		Email:         email,
		EmailVerified: verified,
		Name:          name,
		AvatarURL:     ghUser.AvatarURL,
		Provider:      models.ProviderGitHub,
	})
}

func (p *GitHubProvider) get(ctx context.Context, accessToken, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus("github "+path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: failed to decode github %s", ErrInvalidCredential, path)
	}
	return nil
}
