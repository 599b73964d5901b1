package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speechgate.db")
	ctx := context.Background()
	expires := time.Now().Add(9 * time.Minute)

	db, err := Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, NewCacheStore(db, testKey).Set(ctx, "speech-token", "eastus:persisted", expires))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	got, found, err := NewCacheStore(db, testKey).Get(ctx, "speech-token")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "eastus:persisted", got.Value)
}
