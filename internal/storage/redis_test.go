package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	connString, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := NewRedisStore(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestRedisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping redis integration test")
	}

	store := setupRedisStore(t)
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "url:alice:missing")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "url:alice:github", []byte("v1")))

		val, err := store.Get(ctx, "url:alice:github")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), val)
	})

	t.Run("put if absent", func(t *testing.T) {
		ok, err := store.PutIfAbsent(ctx, "url:alice:blog", []byte("v1"))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.PutIfAbsent(ctx, "url:alice:blog", []byte("v2"))
		require.NoError(t, err)
		assert.False(t, ok)

		val, err := store.Get(ctx, "url:alice:blog")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), val)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "url:alice:temp", []byte("v1")))
		require.NoError(t, store.Delete(ctx, "url:alice:temp"))

		_, err := store.Get(ctx, "url:alice:temp")
		assert.ErrorIs(t, err, ErrKeyNotFound)

		assert.ErrorIs(t, store.Delete(ctx, "url:alice:temp"), ErrKeyNotFound)
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "url:carol:one", []byte("a")))
		require.NoError(t, store.Put(ctx, "url:carol:two", []byte("b")))
		require.NoError(t, store.Put(ctx, "url:dave:one", []byte("c")))

		keys, err := store.Keys(ctx, OwnerPrefix("carol"))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"url:carol:one", "url:carol:two"}, keys)
	})
}
