package repository

import (
	"database/sql"
	"fmt"

	"WaveFM/db"
	"WaveFM/model"
)

// SongRepository defines the interface for catalog data operations.
type SongRepository interface {
	GetAllSongs() ([]model.Song, error)
	GetSongByID(id string) (*model.Song, error)
	ReplaceAll(songs []model.Song) error
	Count() (int64, error)
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	DB *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository() SongRepository {
	return &mysqlSongRepository{DB: db.DB}
}

// GetAllSongs retrieves the whole catalog in seed order.
func (r *mysqlSongRepository) GetAllSongs() ([]model.Song, error) {
	query := `SELECT id, title, artist, cover_art, audio_src, playlist
	           FROM songs ORDER BY position ASC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]model.Song, 0)
	for rows.Next() {
		var song model.Song
		var coverArt, audioSrc, playlist sql.NullString
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &coverArt, &audioSrc, &playlist); err != nil {
			return nil, fmt.Errorf("failed to scan song in GetAllSongs: %w", err)
		}
		song.CoverArt = coverArt.String
		song.AudioSrc = audioSrc.String
		song.Playlist = playlist.String
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllSongs: %w", err)
	}

	return songs, nil
}

// GetSongByID retrieves a song by its ID. A missing song returns (nil, nil).
func (r *mysqlSongRepository) GetSongByID(id string) (*model.Song, error) {
	query := `SELECT id, title, artist, cover_art, audio_src, playlist
	           FROM songs WHERE id = ?`
	row := r.DB.QueryRow(query, id)

	song := &model.Song{}
	var coverArt, audioSrc, playlist sql.NullString
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &coverArt, &audioSrc, &playlist)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %s: %w", id, err)
	}
	song.CoverArt = coverArt.String
	song.AudioSrc = audioSrc.String
	song.Playlist = playlist.String
	return song, nil
}

// ReplaceAll swaps the catalog for the given songs in one transaction,
// preserving their order via the position column. Used by seeding and by
// the seed-file watcher.
func (r *mysqlSongRepository) ReplaceAll(songs []model.Song) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM songs`); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear songs table: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO songs (id, title, artist, cover_art, audio_src, playlist, position)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement for ReplaceAll: %w", err)
	}
	defer stmt.Close()

	for i, song := range songs {
		if _, err := stmt.Exec(song.ID, song.Title, song.Artist, song.CoverArt, song.AudioSrc, song.Playlist, i); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert song %s: %w", song.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog transaction: %w", err)
	}
	return nil
}

// Count returns the number of catalog songs.
func (r *mysqlSongRepository) Count() (int64, error) {
	var count int64
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM songs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count songs: %w", err)
	}
	return count, nil
}
