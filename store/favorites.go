package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"WaveFM/logger"
	"WaveFM/model"
)

// Favorites is the persisted set of favorite song ids. One instance is
// shared process-wide; it hydrates lazily from the KV store on first use
// and rewrites the whole set on every mutation. Insertion order is kept so
// the favorites page lists songs in the order they were marked.
type Favorites struct {
	kv KV

	mu       sync.Mutex
	ids      []string
	hydrated bool
}

// NewFavorites creates a favorites store over kv.
func NewFavorites(kv KV) *Favorites {
	return &Favorites{kv: kv}
}

// hydrate loads the persisted set once. Absent or malformed data yields an
// empty set and never an error. Caller must hold f.mu.
func (f *Favorites) hydrate(ctx context.Context) {
	if f.hydrated {
		return
	}
	f.hydrated = true
	f.ids = []string{}

	data, err := f.kv.Get(ctx, FavoritesKey)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Warn("failed to load favorites, starting empty", logger.ErrorField(err))
		}
		return
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		logger.Warn("malformed favorites value, starting empty", logger.ErrorField(err))
		return
	}
	f.ids = ids
}

// persist writes the whole set. Caller must hold f.mu.
func (f *Favorites) persist(ctx context.Context) error {
	data, err := json.Marshal(f.ids)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := f.kv.Set(ctx, FavoritesKey, data); err != nil {
		return fmt.Errorf("failed to persist favorites: %w", err)
	}
	return nil
}

// IsFavorite reports membership of songID.
func (f *Favorites) IsFavorite(ctx context.Context, songID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrate(ctx)

	for _, id := range f.ids {
		if id == songID {
			return true
		}
	}
	return false
}

// ToggleFavorite flips membership of songID and persists the set.
// It returns the resulting membership.
func (f *Favorites) ToggleFavorite(ctx context.Context, songID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrate(ctx)

	removed := false
	for i, id := range f.ids {
		if id == songID {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		f.ids = append(f.ids, songID)
	}

	if err := f.persist(ctx); err != nil {
		return !removed, err
	}
	return !removed, nil
}

// RemoveFavorite removes songID from the set. Removing an absent id is a no-op.
func (f *Favorites) RemoveFavorite(ctx context.Context, songID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrate(ctx)

	for i, id := range f.ids {
		if id == songID {
			f.ids = append(f.ids[:i], f.ids[i+1:]...)
			return f.persist(ctx)
		}
	}
	return nil
}

// IDs returns the favorite ids in insertion order.
func (f *Favorites) IDs(ctx context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrate(ctx)

	out := make([]string, len(f.ids))
	copy(out, f.ids)
	return out
}
