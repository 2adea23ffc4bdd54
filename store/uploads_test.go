package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"WaveFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploads() (*Uploads, *MemoryKV, *MemoryBlobStore) {
	kv := NewMemoryKV()
	blobs := NewMemoryBlobStore()
	return NewUploads(kv, blobs, time.Hour), kv, blobs
}

func audioParams(title, artist string) UploadParams {
	body := "fake audio bytes"
	return UploadParams{
		Title:            title,
		Artist:           artist,
		Audio:            strings.NewReader(body),
		AudioSize:        int64(len(body)),
		AudioContentType: "audio/mpeg",
	}
}

func TestUploadStoresBlobAndRecord(t *testing.T) {
	u, _, blobs := newTestUploads()
	ctx := context.Background()

	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)
	assert.Equal(t, "My Song", record.Title)
	assert.Equal(t, "Me", record.Artist)
	assert.Equal(t, record.ID, record.AudioKey)
	assert.Equal(t, DefaultCoverArt, record.CoverArt)
	assert.Equal(t, 1, blobs.Len())

	list := u.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, record.ID, list[0].ID)
}

func TestUploadValidationWritesNothing(t *testing.T) {
	u, _, blobs := newTestUploads()
	ctx := context.Background()

	cases := []UploadParams{
		audioParams("", "Me"),
		audioParams("   ", "Me"),
		audioParams("My Song", ""),
		{Title: "My Song", Artist: "Me"}, // no audio
	}
	for _, params := range cases {
		_, err := u.Upload(ctx, params)
		assert.ErrorIs(t, err, model.ErrValidation)
	}

	assert.Empty(t, u.List(ctx))
	assert.Equal(t, 0, blobs.Len())
}

func TestUploadNewestFirst(t *testing.T) {
	u, _, _ := newTestUploads()
	ctx := context.Background()

	first, err := u.Upload(ctx, audioParams("First", "Me"))
	require.NoError(t, err)
	second, err := u.Upload(ctx, audioParams("Second", "Me"))
	require.NoError(t, err)

	list := u.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestUploadIDsAreUnique(t *testing.T) {
	u, _, _ := newTestUploads()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		record, err := u.Upload(ctx, audioParams("Song", "Me"))
		require.NoError(t, err)
		assert.False(t, seen[record.ID], "duplicate id %s", record.ID)
		seen[record.ID] = true
	}
}

func TestUploadCustomCoverEncoded(t *testing.T) {
	u, _, _ := newTestUploads()
	ctx := context.Background()

	params := audioParams("My Song", "Me")
	params.Cover = []byte{0x89, 0x50, 0x4e, 0x47}
	params.CoverContentType = "image/png"

	record, err := u.Upload(ctx, params)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(record.CoverArt, "data:image/png;base64,"))
}

func TestRemoveDeletesRecordAndBlob(t *testing.T) {
	u, _, blobs := newTestUploads()
	ctx := context.Background()

	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)

	require.NoError(t, u.Remove(ctx, record.ID))
	assert.Empty(t, u.List(ctx))
	assert.Equal(t, 0, blobs.Len())

	_, err = u.Get(ctx, record.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRemoveUnknownID(t *testing.T) {
	u, _, _ := newTestUploads()
	err := u.Remove(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveSourceAfterRemove(t *testing.T) {
	u, _, _ := newTestUploads()
	ctx := context.Background()

	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)

	src, err := u.ResolveSourceByID(ctx, record.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, src)

	require.NoError(t, u.Remove(ctx, record.ID))
	_, err = u.ResolveSourceByID(ctx, record.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestResolveSourceMissingBlob(t *testing.T) {
	u, _, blobs := newTestUploads()
	ctx := context.Background()

	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)

	// Blob vanished out from under the metadata record.
	require.NoError(t, blobs.Remove(ctx, record.AudioKey))
	_, err = u.ResolveSource(ctx, record)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestUploadsPersistAcrossInstances(t *testing.T) {
	kv := NewMemoryKV()
	blobs := NewMemoryBlobStore()
	ctx := context.Background()

	u := NewUploads(kv, blobs, time.Hour)
	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)

	fresh := NewUploads(kv, blobs, time.Hour)
	list := fresh.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, record.ID, list[0].ID)

	src, err := fresh.ResolveSourceByID(ctx, record.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, src)
}

func TestUploadsMalformedValueStartsEmpty(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, UploadsKey, []byte("???")))

	u := NewUploads(kv, NewMemoryBlobStore(), time.Hour)
	assert.Empty(t, u.List(ctx))
}

func TestUploadedSongProjection(t *testing.T) {
	u, _, _ := newTestUploads()
	ctx := context.Background()

	record, err := u.Upload(ctx, audioParams("My Song", "Me"))
	require.NoError(t, err)

	song := record.Song()
	assert.Equal(t, record.ID, song.ID)
	assert.Equal(t, "My Song", song.Title)
	assert.True(t, song.Uploaded)
	assert.Empty(t, song.AudioSrc)
}
