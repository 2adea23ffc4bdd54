package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoritesStartsEmpty(t *testing.T) {
	f := NewFavorites(NewMemoryKV())
	ctx := context.Background()

	assert.Empty(t, f.IDs(ctx))
	assert.False(t, f.IsFavorite(ctx, "s1"))
}

func TestToggleFavoriteIsInvolutive(t *testing.T) {
	f := NewFavorites(NewMemoryKV())
	ctx := context.Background()

	on, err := f.ToggleFavorite(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, f.IsFavorite(ctx, "s1"))

	off, err := f.ToggleFavorite(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, off)
	assert.False(t, f.IsFavorite(ctx, "s1"))
	assert.Empty(t, f.IDs(ctx))
}

func TestFavoritesInsertionOrder(t *testing.T) {
	f := NewFavorites(NewMemoryKV())
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		_, err := f.ToggleFavorite(ctx, id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"b", "a", "c"}, f.IDs(ctx))
}

func TestFavoritesPersistAcrossInstances(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	f := NewFavorites(kv)
	_, err := f.ToggleFavorite(ctx, "s1")
	require.NoError(t, err)
	_, err = f.ToggleFavorite(ctx, "s2")
	require.NoError(t, err)

	// A fresh instance over the same KV store sees the same set.
	g := NewFavorites(kv)
	assert.Equal(t, []string{"s1", "s2"}, g.IDs(ctx))
}

func TestFavoritesMalformedValueStartsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, FavoritesKey, []byte("{not json")))

	f := NewFavorites(kv)
	assert.Empty(t, f.IDs(ctx))

	// The next mutation writes a clean value.
	_, err := f.ToggleFavorite(ctx, "s1")
	require.NoError(t, err)

	data, err := kv.Get(ctx, FavoritesKey)
	require.NoError(t, err)
	var ids []string
	require.NoError(t, json.Unmarshal(data, &ids))
	assert.Equal(t, []string{"s1"}, ids)
}

func TestRemoveFavoriteAbsentIsNoop(t *testing.T) {
	f := NewFavorites(NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, f.RemoveFavorite(ctx, "ghost"))

	_, err := f.ToggleFavorite(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, f.RemoveFavorite(ctx, "s1"))
	assert.Empty(t, f.IDs(ctx))
}
