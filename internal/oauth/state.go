package oauth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/redis/go-redis/v9"
)

// StateStore keeps redirect-flow state values, bound to the provider that issued them,
// until the callback consumes them.
type StateStore interface {
	Save(ctx context.Context, state string, provider models.AuthProvider, ttl time.Duration) error
	// Consume invalidates state and reports whether it was issued for provider and is unexpired.
	Consume(ctx context.Context, state string, provider models.AuthProvider) (bool, error)
}

type pendingState struct {
	provider  models.AuthProvider
	expiresAt time.Time
}

type MemoryStateStore struct {
	states sync.Map
	now    func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{now: time.Now}
}

func (s *MemoryStateStore) Save(_ context.Context, state string, provider models.AuthProvider, ttl time.Duration) error {
	now := s.now()
	s.states.Range(func(key, value any) bool {
		if p, ok := value.(pendingState); ok && now.After(p.expiresAt) {
			s.states.Delete(key)
		}
		return true
	})
	s.states.Store(state, pendingState{provider: provider, expiresAt: now.Add(ttl)})
	return nil
}

func (s *MemoryStateStore) Consume(_ context.Context, state string, provider models.AuthProvider) (bool, error) {
	value, ok := s.states.LoadAndDelete(state)
	if !ok {
		return false, nil
	}
	p, ok := value.(pendingState)
	return ok && p.provider == provider && !s.now().After(p.expiresAt), nil
}

const redisStatePrefix = "oauth:state:"

// RedisStateStore shares state across API replicas.
type RedisStateStore struct {
	rdb redis.Cmdable
}

func NewRedisStateStore(rdb redis.Cmdable) *RedisStateStore {
	return &RedisStateStore{rdb: rdb}
}

func (s *RedisStateStore) Save(ctx context.Context, state string, provider models.AuthProvider, ttl time.Duration) error {
	return s.rdb.Set(ctx, redisStatePrefix+state, string(provider), ttl).Err()
}

func (s *RedisStateStore) Consume(ctx context.Context, state string, provider models.AuthProvider) (bool, error) {
	issuedFor, err := s.rdb.GetDel(ctx, redisStatePrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return issuedFor == string(provider), nil
}
