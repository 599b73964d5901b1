package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/speechgate/internal/adapter/driven/postgres"
)

func setupStore(t *testing.T) *postgres.CacheStore {
	t.Helper()

	dsn := os.Getenv("SPEECHGATE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SPEECHGATE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.NewCacheStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))
	return store
}

func TestCacheStore_RoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	key := "test-" + uuid.NewString()
	t.Cleanup(func() { _ = store.Delete(context.Background(), key) })

	expires := time.Now().Add(9 * time.Minute).Truncate(time.Microsecond)

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, key, "eastus:first", expires))
	require.NoError(t, store.Set(ctx, key, "eastus:second", expires))

	got, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "eastus:second", got.Value)
	assert.True(t, expires.Equal(got.ExpiresAt))

	require.NoError(t, store.Delete(ctx, key))
	_, found, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	store := setupStore(t)
	assert.NoError(t, store.EnsureSchema(context.Background()))
}
