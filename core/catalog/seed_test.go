package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"WaveFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo is safe for concurrent use; the watcher reloads from its own
// goroutine.
type stubRepo struct {
	mu       sync.Mutex
	songs    []model.Song
	replaced int
}

func (r *stubRepo) GetAllSongs() ([]model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Song, len(r.songs))
	copy(out, r.songs)
	return out, nil
}

func (r *stubRepo) GetSongByID(id string) (*model.Song, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.songs {
		if s.ID == id {
			song := s
			return &song, nil
		}
	}
	return nil, nil
}

func (r *stubRepo) ReplaceAll(songs []model.Song) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.songs = songs
	r.replaced++
	return nil
}

func (r *stubRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.songs)), nil
}

func (r *stubRepo) replacedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replaced
}

const seedJSON = `[
  {"id": "1", "title": "Midnight Drive", "artist": "Neon Waves", "coverArt": "c1.jpg", "audioSrc": "/audio/1.mp3", "playlist": "Synthwave"},
  {"id": "2", "title": "Ocean Floor", "artist": "Deep Current", "coverArt": "c2.jpg", "audioSrc": "/audio/2.mp3", "playlist": "Ambient"}
]`

func writeSeed(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeed(t, t.TempDir(), seedJSON)

	songs, err := LoadSeedFile(path)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "Midnight Drive", songs[0].Title)
	assert.Equal(t, "Synthwave", songs[0].Playlist)
}

func TestLoadSeedFileRejectsMissingID(t *testing.T) {
	path := writeSeed(t, t.TempDir(), `[{"title": "No ID", "artist": "X"}]`)

	_, err := LoadSeedFile(path)
	assert.Error(t, err)
}

func TestLoadSeedFileRejectsMalformedJSON(t *testing.T) {
	path := writeSeed(t, t.TempDir(), `[{"id": "1"`)

	_, err := LoadSeedFile(path)
	assert.Error(t, err)
}

func TestSeedReplacesCatalog(t *testing.T) {
	path := writeSeed(t, t.TempDir(), seedJSON)
	repo := &stubRepo{}

	require.NoError(t, Seed(repo, path))
	assert.Len(t, repo.songs, 2)
	assert.Equal(t, 1, repo.replacedCount())
}

func TestSeedMissingFileKeepsCatalog(t *testing.T) {
	repo := &stubRepo{songs: []model.Song{{ID: "keep"}}}

	require.NoError(t, Seed(repo, filepath.Join(t.TempDir(), "absent.json")))
	assert.Len(t, repo.songs, 1)
	assert.Zero(t, repo.replacedCount())
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeSeed(t, dir, seedJSON)
	repo := &stubRepo{}

	w, err := NewWatcher(repo, path)
	require.NoError(t, err)
	defer w.Close()

	updated := `[{"id": "9", "title": "New One", "artist": "Someone", "coverArt": "c.jpg", "audioSrc": "/a.mp3", "playlist": "Fresh"}]`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if repo.replacedCount() > 0 {
			songs, err := repo.GetAllSongs()
			require.NoError(t, err)
			require.Len(t, songs, 1)
			assert.Equal(t, "9", songs[0].ID)
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("watcher never reloaded the catalog")
}
