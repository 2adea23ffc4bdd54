package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"WaveFM/logger"
	"WaveFM/model"
)

// DefaultCoverArt is the placeholder cover (a spinning-disc style SVG data
// URL) substituted when an upload carries no cover image.
const DefaultCoverArt = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCA5NiA5NiI+PHJlY3Qgd2lkdGg9Ijk2IiBoZWlnaHQ9Ijk2IiBmaWxsPSIjMTgxODFiIi8+PGNpcmNsZSBjeD0iNDgiIGN5PSI0OCIgcj0iMzAiIGZpbGw9IiMyNzI3MmEiLz48Y2lyY2xlIGN4PSI0OCIgY3k9IjQ4IiByPSI2IiBmaWxsPSIjMTBiOTgxIi8+PC9zdmc+"

// UploadParams carries the fields of one upload request. Audio is required;
// Cover is optional and replaced by DefaultCoverArt when nil.
type UploadParams struct {
	Title            string
	Artist           string
	Audio            io.Reader
	AudioSize        int64
	AudioContentType string
	Cover            []byte
	CoverContentType string
}

// Uploads persists uploaded-song metadata as one JSON list in the KV store
// and the raw audio bytes in the blob store, joined by AudioKey == ID.
// Records are kept newest first.
type Uploads struct {
	kv        KV
	blobs     BlobStore
	sourceTTL time.Duration

	mu       sync.Mutex
	records  []model.UploadedSong
	hydrated bool
	lastID   int64
}

// NewUploads creates an upload store. sourceTTL bounds the lifetime of
// resolved playable URLs.
func NewUploads(kv KV, blobs BlobStore, sourceTTL time.Duration) *Uploads {
	if sourceTTL <= 0 {
		sourceTTL = time.Hour
	}
	return &Uploads{kv: kv, blobs: blobs, sourceTTL: sourceTTL}
}

// hydrate loads the persisted record list once; absent or malformed data
// yields an empty list. Caller must hold u.mu.
func (u *Uploads) hydrate(ctx context.Context) {
	if u.hydrated {
		return
	}
	u.hydrated = true
	u.records = []model.UploadedSong{}

	data, err := u.kv.Get(ctx, UploadsKey)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			logger.Warn("failed to load uploaded songs, starting empty", logger.ErrorField(err))
		}
		return
	}

	var records []model.UploadedSong
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("malformed uploaded songs value, starting empty", logger.ErrorField(err))
		return
	}
	u.records = records
}

// persist writes the whole record list. Caller must hold u.mu.
func (u *Uploads) persist(ctx context.Context) error {
	data, err := json.Marshal(u.records)
	if err != nil {
		return fmt.Errorf("failed to marshal uploaded songs: %w", err)
	}
	if err := u.kv.Set(ctx, UploadsKey, data); err != nil {
		return fmt.Errorf("failed to persist uploaded songs: %w", err)
	}
	return nil
}

// nextID generates a time-based id, bumped past the previous one so two
// uploads within the same millisecond stay distinct. Caller must hold u.mu.
func (u *Uploads) nextID() string {
	id := time.Now().UnixMilli()
	if id <= u.lastID {
		id = u.lastID + 1
	}
	u.lastID = id
	return strconv.FormatInt(id, 10)
}

// encodeCover turns raw image bytes into an embeddable data URL.
func encodeCover(data []byte, contentType string) string {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = "image/jpeg"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Upload validates params, stores the audio blob and prepends the new
// metadata record. On a validation error nothing is written.
func (u *Uploads) Upload(ctx context.Context, params UploadParams) (*model.UploadedSong, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, fmt.Errorf("%w: missing title", model.ErrValidation)
	}
	if strings.TrimSpace(params.Artist) == "" {
		return nil, fmt.Errorf("%w: missing artist", model.ErrValidation)
	}
	if params.Audio == nil {
		return nil, fmt.Errorf("%w: missing audio file", model.ErrValidation)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.hydrate(ctx)

	id := u.nextID()

	if err := u.blobs.Put(ctx, id, params.Audio, params.AudioSize, params.AudioContentType); err != nil {
		return nil, fmt.Errorf("failed to store audio blob %s: %w", id, err)
	}

	coverArt := DefaultCoverArt
	if len(params.Cover) > 0 {
		coverArt = encodeCover(params.Cover, params.CoverContentType)
	}

	record := model.UploadedSong{
		ID:         id,
		Title:      strings.TrimSpace(params.Title),
		Artist:     strings.TrimSpace(params.Artist),
		CoverArt:   coverArt,
		AudioKey:   id,
		UploadDate: time.Now().Format("1/2/2006"),
	}

	u.records = append([]model.UploadedSong{record}, u.records...)
	if err := u.persist(ctx); err != nil {
		// Roll the blob back so no orphan survives a failed metadata write.
		if rmErr := u.blobs.Remove(ctx, id); rmErr != nil {
			logger.Warn("failed to remove blob after persist failure",
				logger.String("id", id), logger.ErrorField(rmErr))
		}
		u.records = u.records[1:]
		return nil, err
	}

	logger.Info("song uploaded",
		logger.String("id", id),
		logger.String("title", record.Title),
		logger.String("artist", record.Artist))
	return &record, nil
}

// Get returns the record with the given id.
func (u *Uploads) Get(ctx context.Context, id string) (*model.UploadedSong, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hydrate(ctx)

	for _, r := range u.records {
		if r.ID == id {
			record := r
			return &record, nil
		}
	}
	return nil, fmt.Errorf("upload %s: %w", id, model.ErrNotFound)
}

// List returns all records, newest first.
func (u *Uploads) List(ctx context.Context) []model.UploadedSong {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hydrate(ctx)

	out := make([]model.UploadedSong, len(u.records))
	copy(out, u.records)
	return out
}

// Remove deletes the record and its paired blob. Neither side may be left
// orphaned: the metadata list is rewritten first, then the blob is removed.
func (u *Uploads) Remove(ctx context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.hydrate(ctx)

	found := false
	updated := make([]model.UploadedSong, 0, len(u.records))
	for _, r := range u.records {
		if r.ID == id {
			found = true
			continue
		}
		updated = append(updated, r)
	}
	if !found {
		return fmt.Errorf("upload %s: %w", id, model.ErrNotFound)
	}

	u.records = updated
	if err := u.persist(ctx); err != nil {
		return err
	}

	if err := u.blobs.Remove(ctx, id); err != nil {
		return fmt.Errorf("failed to remove audio blob %s: %w", id, err)
	}

	logger.Info("upload removed", logger.String("id", id))
	return nil
}

// ResolveSource produces a transient playable reference for the record's
// blob. The reference is never persisted; a missing blob yields
// model.ErrNotFound, which playback paths treat as an unavailable source.
func (u *Uploads) ResolveSource(ctx context.Context, record *model.UploadedSong) (string, error) {
	url, err := u.blobs.PresignedURL(ctx, record.AudioKey, u.sourceTTL)
	if err != nil {
		return "", fmt.Errorf("failed to resolve source for upload %s: %w", record.AudioKey, err)
	}
	return url, nil
}

// ResolveSourceByID resolves the playable reference for the record with the
// given id.
func (u *Uploads) ResolveSourceByID(ctx context.Context, id string) (string, error) {
	record, err := u.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.ResolveSource(ctx, record)
}
