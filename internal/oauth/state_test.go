package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStore_ConsumeOnce(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state-1", models.ProviderGoogle, 10*time.Minute))

	ok, err := store.Consume(ctx, "state-1", models.ProviderGoogle)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "state-1", models.ProviderGoogle)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStateStore_UnknownState(t *testing.T) {
	store := NewMemoryStateStore()

	ok, err := store.Consume(context.Background(), "never-issued", models.ProviderGoogle)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStateStore_Expired(t *testing.T) {
	store := NewMemoryStateStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "state-2", models.ProviderGoogle, time.Minute))

	now = now.Add(2 * time.Minute)
	ok, err := store.Consume(ctx, "state-2", models.ProviderGoogle)

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStateStore_SaveSweepsExpired(t *testing.T) {
	store := NewMemoryStateStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "stale", models.ProviderGoogle, time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, store.Save(ctx, "fresh", models.ProviderGoogle, time.Minute))

	_, found := store.states.Load("stale")
	assert.False(t, found)
}

func TestMemoryStateStore_WrongProvider(t *testing.T) {
	store := NewMemoryStateStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "google-state", models.ProviderGoogle, 10*time.Minute))

	ok, err := store.Consume(ctx, "google-state", models.ProviderGitHub)
	require.NoError(t, err)
	assert.False(t, ok)

	// A mismatched attempt still burns the state.
	ok, err = store.Consume(ctx, "google-state", models.ProviderGoogle)
	require.NoError(t, err)
	assert.False(t, ok)
}
