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

// DefaultRecentLimit caps the recent-play log.
const DefaultRecentLimit = 20

// RecentLog keeps the most recently played songs, newest first. Entries are
// full song snapshots captured at play time, deduplicated by id, capped at
// the configured limit. The whole list is rewritten on every record.
type RecentLog struct {
	kv    KV
	limit int

	mu       sync.Mutex
	songs    []model.Song
	hydrated bool
}

// NewRecentLog creates a recent-play log over kv. A non-positive limit
// falls back to DefaultRecentLimit.
func NewRecentLog(kv KV, limit int) *RecentLog {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &RecentLog{kv: kv, limit: limit}
}

// hydrate loads the persisted list once; absent or malformed data yields an
// empty log. Caller must hold r.mu.
func (r *RecentLog) hydrate(ctx context.Context) {
	if r.hydrated {
		return
	}
	r.hydrated = true
	r.songs = []model.Song{}

	data, err := r.kv.Get(ctx, RecentKey)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Warn("failed to load recent songs, starting empty", logger.ErrorField(err))
		}
		return
	}

	var songs []model.Song
	if err := json.Unmarshal(data, &songs); err != nil {
		logger.Warn("malformed recent songs value, starting empty", logger.ErrorField(err))
		return
	}
	if len(songs) > r.limit {
		songs = songs[:r.limit]
	}
	r.songs = songs
}

// Record snapshots song, moves it to the front of the log (deduplicated by
// id), truncates to the limit and persists the whole list.
func (r *RecentLog) Record(ctx context.Context, song model.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydrate(ctx)

	// The snapshot drops the transient audio source: blob URLs resolved at
	// play time must not outlive the session that resolved them.
	snapshot := song
	snapshot.AudioSrc = ""

	updated := make([]model.Song, 0, len(r.songs)+1)
	updated = append(updated, snapshot)
	for _, s := range r.songs {
		if s.ID != snapshot.ID {
			updated = append(updated, s)
		}
	}
	if len(updated) > r.limit {
		updated = updated[:r.limit]
	}
	r.songs = updated

	data, err := json.Marshal(r.songs)
	if err != nil {
		return fmt.Errorf("failed to marshal recent songs: %w", err)
	}
	if err := r.kv.Set(ctx, RecentKey, data); err != nil {
		return fmt.Errorf("failed to persist recent songs: %w", err)
	}
	return nil
}

// List returns the recent songs, most recent first.
func (r *RecentLog) List(ctx context.Context) []model.Song {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hydrate(ctx)

	out := make([]model.Song, len(r.songs))
	copy(out, r.songs)
	return out
}
