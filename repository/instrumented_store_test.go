package repository

import (
	"context"
	"testing"

	"fairbook/config"
	"fairbook/domain/interfaces"
	"fairbook/infrastructure/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentedStore(t *testing.T) {
	cfg := config.NewTestConfig()
	store := NewInstrumentedStore(NewMemoryStore(), "memory", observability.NewMetricsProvider(cfg))
	ctx := context.Background()

	require.NoError(t, store.SetWithTTL(ctx, "k1", []byte("v1"), 0))
	value, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), value)

	_, err = store.Get(ctx, "absent")
	assert.ErrorIs(t, err, interfaces.ErrKeyNotFound)

	require.NoError(t, store.AppendToList(ctx, "l1", []byte("a")))
	require.NoError(t, store.AppendToList(ctx, "l1", []byte("b")))
	list, err := store.GetList(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b")}, list)

	require.NoError(t, store.AddToSet(ctx, "s1", "m1"))
	require.NoError(t, store.AddToSet(ctx, "s1", "m1"))
	set, err := store.GetSet(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, set)

	assert.NoError(t, store.Close())
}
