package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) CountByRole(ctx context.Context, role models.Role) (int, error) {
	args := m.Called(ctx, role)
	return args.Int(0), args.Error(1)
}

// MockAdminProvisioner mocks the AdminProvisioner
type MockAdminProvisioner struct {
	mock.Mock
}

func (m *MockAdminProvisioner) CreateAdmin(ctx context.Context, secret string, fields services.AdminFields) (*services.AdminResult, error) {
	args := m.Called(ctx, secret, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AdminResult), args.Error(1)
}

// MockTokenExchanger mocks the OAuthTokenExchanger
type MockTokenExchanger struct {
	mock.Mock
}

func (m *MockTokenExchanger) Provider(name models.AuthProvider) (oauth.Provider, bool) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(oauth.Provider), args.Bool(1)
}

func (m *MockTokenExchanger) Exchange(ctx context.Context, provider models.AuthProvider, cred services.Credential) (*models.User, *services.Session, error) {
	args := m.Called(ctx, provider, cred)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*services.Session), args.Error(2)
}

// MockSessionService mocks the SessionIssuer
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Refresh(ctx context.Context, refreshToken string) (*models.User, *services.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*services.Session), args.Error(2)
}

func (m *MockSessionService) Revoke(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// MockAdminAuthenticator mocks the AdminAuthenticator
type MockAdminAuthenticator struct {
	mock.Mock
}

func (m *MockAdminAuthenticator) Login(ctx context.Context, secret, email, password string) (*models.User, *services.Session, error) {
	args := m.Called(ctx, secret, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.User), args.Get(1).(*services.Session), args.Error(2)
}

// MockStateStore mocks an oauth.StateStore
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, state string, provider models.AuthProvider, ttl time.Duration) error {
	args := m.Called(ctx, state, provider, ttl)
	return args.Error(0)
}

func (m *MockStateStore) Consume(ctx context.Context, state string, provider models.AuthProvider) (bool, error) {
	args := m.Called(ctx, state, provider)
	return args.Bool(0), args.Error(1)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) Name() models.AuthProvider {
	args := m.Called()
	return args.Get(0).(models.AuthProvider)
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) UserInfoFromAccessToken(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) VerifyIDToken(ctx context.Context, idToken string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}
