package catalog

import (
	"testing"

	"WaveFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() []model.Song {
	return []model.Song{
		{ID: "1", Title: "Midnight Drive", Artist: "Neon Waves", Playlist: "Synthwave", CoverArt: "c1.jpg"},
		{ID: "2", Title: "Ocean Floor", Artist: "Deep Current", Playlist: "Ambient", CoverArt: "c2.jpg"},
		{ID: "3", Title: "Sunset Boulevard", Artist: "Neon Waves", Playlist: "Synthwave", CoverArt: "c3.jpg"},
		{ID: "4", Title: "Quiet Rain", Artist: "Stillness", Playlist: "Ambient", CoverArt: "c4.jpg"},
		{ID: "5", Title: "Loose Ends", Artist: "The Drift", Playlist: "", CoverArt: "c5.jpg"},
	}
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	songs := sampleCatalog()

	out := Filter(songs, "")
	assert.Len(t, out, len(songs))

	out = Filter(songs, "   ")
	assert.Len(t, out, len(songs))
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	songs := sampleCatalog()
	out := Filter(songs, "")
	out[0].Title = "changed"
	assert.Equal(t, "Midnight Drive", songs[0].Title)
}

func TestFilterMatchesTitleAndArtist(t *testing.T) {
	songs := sampleCatalog()

	byTitle := Filter(songs, "ocean")
	require.Len(t, byTitle, 1)
	assert.Equal(t, "2", byTitle[0].ID)

	byArtist := Filter(songs, "neon")
	require.Len(t, byArtist, 2)
	assert.Equal(t, "1", byArtist[0].ID)
	assert.Equal(t, "3", byArtist[1].ID)
}

func TestFilterCaseInsensitive(t *testing.T) {
	songs := sampleCatalog()
	out := Filter(songs, "MIDNIGHT")
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestFilterNoMatches(t *testing.T) {
	out := Filter(sampleCatalog(), "zzzz")
	assert.Empty(t, out)
}

func TestGroupByPlaylistInsertionOrder(t *testing.T) {
	groups := GroupByPlaylist(sampleCatalog())

	require.Len(t, groups, 2)
	assert.Equal(t, "Synthwave", groups[0].Name)
	assert.Equal(t, "Ambient", groups[1].Name)
}

func TestGroupByPlaylistFirstSongCover(t *testing.T) {
	groups := GroupByPlaylist(sampleCatalog())

	require.Len(t, groups, 2)
	assert.Equal(t, "c1.jpg", groups[0].CoverArt)
	assert.Equal(t, "c2.jpg", groups[1].CoverArt)
}

func TestGroupByPlaylistSkipsUnlabeled(t *testing.T) {
	groups := GroupByPlaylist(sampleCatalog())

	for _, g := range groups {
		for _, s := range g.Songs {
			assert.NotEqual(t, "5", s.ID)
		}
	}
}

func TestPlaylistSongs(t *testing.T) {
	songs := PlaylistSongs(sampleCatalog(), "Ambient")
	require.Len(t, songs, 2)
	assert.Equal(t, "2", songs[0].ID)
	assert.Equal(t, "4", songs[1].ID)

	assert.Empty(t, PlaylistSongs(sampleCatalog(), "Jazz"))
}
