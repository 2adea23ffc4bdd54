// Package store implements the persistence contracts of the player: the
// favorites set, the recent-play log and the upload store. Each is written
// against small KV/Blob interfaces so the same logic runs on Redis and
// MinIO in production and on in-memory adapters in tests.
package store

import (
	"context"
	"io"
	"time"
)

// Well-known keys for the JSON values kept in the KV store. Every store
// rewrites its whole value on mutation and treats an absent or malformed
// value as empty on read.
const (
	FavoritesKey = "favorites"
	RecentKey    = "recentSongs"
	UploadsKey   = "uploadedSongs"
)

// KV is durable key-value persistence for whole JSON values.
type KV interface {
	// Get returns the stored value, or model.ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// BlobStore is durable binary storage keyed by an opaque id.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Remove deletes the blob; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// PresignedURL returns a short-lived playable reference to the blob,
	// or model.ErrNotFound when no blob exists under key.
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
