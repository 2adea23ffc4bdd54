// Package catalog provides catalog filtering and playlist grouping over
// song lists loaded from the song repository.
package catalog

import (
	"strings"

	"WaveFM/model"
)

// Filter returns the songs whose title or artist contains query,
// case-insensitively. An empty (or all-space) query returns all songs.
// Input order is preserved.
func Filter(songs []model.Song, query string) []model.Song {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		out := make([]model.Song, len(songs))
		copy(out, songs)
		return out
	}

	out := make([]model.Song, 0, len(songs))
	for _, song := range songs {
		if strings.Contains(strings.ToLower(song.Title), query) ||
			strings.Contains(strings.ToLower(song.Artist), query) {
			out = append(out, song)
		}
	}
	return out
}

// GroupByPlaylist groups songs by their playlist label, preserving the
// order in which labels first appear. A group's cover is the cover of the
// first song seen for that label. Songs without a label are skipped.
func GroupByPlaylist(songs []model.Song) []model.PlaylistGroup {
	index := make(map[string]int)
	groups := make([]model.PlaylistGroup, 0)

	for _, song := range songs {
		if song.Playlist == "" {
			continue
		}
		i, ok := index[song.Playlist]
		if !ok {
			i = len(groups)
			index[song.Playlist] = i
			groups = append(groups, model.PlaylistGroup{
				Name:     song.Playlist,
				CoverArt: song.CoverArt,
			})
		}
		groups[i].Songs = append(groups[i].Songs, song)
	}
	return groups
}

// PlaylistSongs returns the songs of one playlist label, in catalog order.
func PlaylistSongs(songs []model.Song, playlist string) []model.Song {
	out := make([]model.Song, 0)
	for _, song := range songs {
		if song.Playlist == playlist {
			out = append(out, song)
		}
	}
	return out
}
