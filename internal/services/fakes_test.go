package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/jackc/pgx/v5"
)

// memoryStore is an IdentityStore whose uniqueness rules mirror the Postgres indexes.
type memoryStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*models.User
	identities map[string]uuid.UUID
	calls      int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		users:      make(map[uuid.UUID]*models.User),
		identities: make(map[string]uuid.UUID),
	}
}

func identityKey(provider models.AuthProvider, subject string) string {
	return string(provider) + "|" + subject
}

func (s *memoryStore) touch() {
	s.calls++
}

func (s *memoryStore) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) insertLocked(user *models.User) (*models.User, error) {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username) {
			return nil, ErrConflict
		}
	}
	created := *user
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	s.users[created.ID] = &created
	out := created
	return &out, nil
}

func (s *memoryStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.insertLocked(user)
}

func (s *memoryStore) CreateFederated(_ context.Context, user *models.User, subject string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	key := identityKey(user.AuthProvider, subject)
	if _, ok := s.identities[key]; ok {
		return nil, ErrConflict
	}
	created, err := s.insertLocked(user)
	if err != nil {
		return nil, err
	}
	s.identities[key] = created.ID
	return created, nil
}

func (s *memoryStore) LinkIdentity(_ context.Context, userID uuid.UUID, provider models.AuthProvider, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	key := identityKey(provider, subject)
	if _, ok := s.identities[key]; ok {
		return ErrConflict
	}
	s.identities[key] = userID
	return nil
}

func (s *memoryStore) UpdateProfile(_ context.Context, id uuid.UUID, fullName string, picture *string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.FullName = fullName
	u.ProfilePicture = picture
	u.UpdatedAt = time.Now()
	out := *u
	return &out, nil
}

func (s *memoryStore) CountByRole(_ context.Context, role models.Role) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	n := 0
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *u
	return &out, nil
}

func (s *memoryStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memoryStore) GetByIdentity(_ context.Context, provider models.AuthProvider, subject string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	id, ok := s.identities[identityKey(provider, subject)]
	if !ok {
		return nil, ErrNotFound
	}
	out := *s.users[id]
	return &out, nil
}

func (s *memoryStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *memoryStore) setStatus(id uuid.UUID, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id].Status = status
}

type memoryTokenStore struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{tokens: make(map[string]uuid.UUID)}
}

func (s *memoryTokenStore) StoreRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenHash] = userID
	return nil
}

func (s *memoryTokenStore) ValidateRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[tokenHash]
	if !ok {
		return uuid.Nil, pgx.ErrNoRows
	}
	return id, nil
}

func (s *memoryTokenStore) RevokeRefreshToken(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[tokenHash]
	delete(s.tokens, tokenHash)
	return ok, nil
}

func (s *memoryTokenStore) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, id := range s.tokens {
		if id == userID {
			delete(s.tokens, hash)
		}
	}
	return nil
}

func (s *memoryTokenStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// fakeProvider answers every credential with a fixed identity or error.
type fakeProvider struct {
	name models.AuthProvider
	info *oauth.UserInfo
	err  error
}

func (p *fakeProvider) Name() models.AuthProvider { return p.name }

func (p *fakeProvider) GetConsentURL(state string) string {
	return "https://provider.example.com/auth?state=" + state
}

func (p *fakeProvider) ExchangeCode(_ context.Context, _ string) (*oauth.UserInfo, error) {
	return p.result()
}

func (p *fakeProvider) UserInfoFromAccessToken(_ context.Context, _ string) (*oauth.UserInfo, error) {
	return p.result()
}

func (p *fakeProvider) VerifyIDToken(_ context.Context, _ string) (*oauth.UserInfo, error) {
	return p.result()
}

func (p *fakeProvider) result() (*oauth.UserInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	info := *p.info
	return &info, nil
}
