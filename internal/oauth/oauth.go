package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gulfreturn/gulf-api/internal/models"
	"golang.org/x/oauth2"
)

var (
	// ErrInvalidCredential covers expired, malformed, forged or wrong-audience credentials
	// and malformed provider responses.
	ErrInvalidCredential = errors.New("invalid provider credential")
	// ErrProviderUnavailable covers transport failures, timeouts and provider-side 5xx.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
)

type UserInfo struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	AvatarURL     string
	Provider      models.AuthProvider
}

// Provider is an OAuth2 identity provider supporting the redirect flow and
// bearer access-token lookups.
type Provider interface {
	Name() models.AuthProvider
	GetConsentURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*UserInfo, error)
	UserInfoFromAccessToken(ctx context.Context, accessToken string) (*UserInfo, error)
}

// IDTokenVerifier is implemented by providers that issue OpenID Connect ID tokens.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*UserInfo, error)
}

func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// upstreamTransport fails provider-side 5xx and 429 responses with ErrProviderUnavailable.
// Callers that only report a status as text (the idtoken cert fetch) then classify like
// a transport failure.
type upstreamTransport struct {
	base http.RoundTripper
}

func (t upstreamTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrProviderUnavailable, req.URL.Host, resp.StatusCode)
	}
	return resp, nil
}

func newProviderClient(timeout time.Duration, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{Timeout: timeout, Transport: upstreamTransport{base: base}}
}

func classifyTransportError(err error) error {
	if errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrProviderUnavailable) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
}

func classifyStatus(provider string, code int) error {
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s returned status %d", ErrProviderUnavailable, provider, code)
	}
	return fmt.Errorf("%w: %s returned status %d", ErrInvalidCredential, provider, code)
}

// classifyExchangeError separates rejected authorization codes from an unreachable token endpoint.
func classifyExchangeError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		if re.Response.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: token endpoint returned status %d", ErrProviderUnavailable, re.Response.StatusCode)
		}
		return fmt.Errorf("%w: code exchange rejected", ErrInvalidCredential)
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%w: failed to exchange code: %v", ErrInvalidCredential, err)
}

func requireIdentity(info *UserInfo) (*UserInfo, error) {
	if info.ID == "" || info.Email == "" {
		return nil, fmt.Errorf("%w: provider response missing subject or email", ErrInvalidCredential)
	}
	return info, nil
}
