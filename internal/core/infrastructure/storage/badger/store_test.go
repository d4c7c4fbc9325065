package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	storageconfig "github.com/weisyn/zkcompose/internal/config/storage"
	logimpl "github.com/weisyn/zkcompose/internal/core/infrastructure/log"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	inMemory := true
	store, err := New(storageconfig.New(&storageconfig.UserStorageConfig{
		InMemory: &inMemory,
	}), logimpl.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []byte("k1"), []byte("v1")))
	value, err := store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	// 覆盖语义
	require.NoError(t, store.Set(ctx, []byte("k1"), []byte("v2")))
	value, err = store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), value)

	require.NoError(t, store.Delete(ctx, []byte("k1")))
	value, err = store.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestStore_GetMissingIsNilNil(t *testing.T) {
	store := newTestStore(t)
	value, err := store.Get(context.Background(), []byte("missing"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestStore_DeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Delete(context.Background(), []byte("missing")))
}

func TestStore_ScanPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, []byte("job/a"), []byte("1")))
	require.NoError(t, store.Set(ctx, []byte("job/b"), []byte("2")))
	require.NoError(t, store.Set(ctx, []byte("other/c"), []byte("3")))

	seen := map[string]string{}
	err := store.ScanPrefix(ctx, []byte("job/"), func(key, value []byte) bool {
		seen[string(key)] = string(value)
		return true
	})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"job/a": "1", "job/b": "2"}, seen)
}

func TestStore_ScanPrefixEarlyStop(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"p/1", "p/2", "p/3"} {
		require.NoError(t, store.Set(ctx, []byte(k), []byte("v")))
	}

	count := 0
	err := store.ScanPrefix(ctx, []byte("p/"), func(key, value []byte) bool {
		count++
		return count < 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
