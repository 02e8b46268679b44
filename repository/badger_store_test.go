package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fairbook/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestBadgerStore_GetSet(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "nope")
		assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
	})

	t.Run("roundtrip and overwrite", func(t *testing.T) {
		require.NoError(t, store.SetWithTTL(ctx, "k1", []byte("v1"), 0))
		require.NoError(t, store.SetWithTTL(ctx, "k1", []byte("v2"), 0))

		value, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), value)
	})

	t.Run("ttl expiry", func(t *testing.T) {
		require.NoError(t, store.SetWithTTL(ctx, "ttl", []byte("soon gone"), time.Second))

		_, err := store.Get(ctx, "ttl")
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond)
		_, err = store.Get(ctx, "ttl")
		assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)
	})
}

func TestBadgerStore_Lists(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	t.Run("append order survives enough entries to need zero padding", func(t *testing.T) {
		for i := 0; i < 15; i++ {
			require.NoError(t, store.AppendToList(ctx, "log", []byte(fmt.Sprintf("entry-%d", i))))
		}

		list, err := store.GetList(ctx, "log")
		require.NoError(t, err)
		require.Len(t, list, 15)
		for i, value := range list {
			assert.Equal(t, fmt.Sprintf("entry-%d", i), string(value))
		}
	})

	t.Run("sequence counter never leaks into the list", func(t *testing.T) {
		require.NoError(t, store.AppendToList(ctx, "short", []byte("only")))

		list, err := store.GetList(ctx, "short")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "only", string(list[0]))
	})

	t.Run("empty list", func(t *testing.T) {
		list, err := store.GetList(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestBadgerStore_Sets(t *testing.T) {
	store := newTestBadgerStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddToSet(ctx, "members", "m1"))
	require.NoError(t, store.AddToSet(ctx, "members", "m2"))
	require.NoError(t, store.AddToSet(ctx, "members", "m1"))

	members, err := store.GetSet(ctx, "members")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, members)
}
