package repository

import (
	"context"
	"fmt"
	"time"

	"WaveFM/model"

	"gorm.io/gorm"
)

// HistoryRepository archives every recorded play. Unlike the bounded recent
// list in the KV store this table is append-only and queryable.
type HistoryRepository interface {
	Append(ctx context.Context, song model.Song) error
	Recent(ctx context.Context, limit int) ([]model.PlayRecord, error)
	CountForSong(ctx context.Context, songID string) (int64, error)
}

type gormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a history repository on the given GORM
// connection.
func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &gormHistoryRepository{db: db}
}

// Append stores one play of song at the current time.
func (r *gormHistoryRepository) Append(ctx context.Context, song model.Song) error {
	record := model.PlayRecord{
		SongID:   song.ID,
		Title:    song.Title,
		Artist:   song.Artist,
		Playlist: song.Playlist,
		Uploaded: song.Uploaded,
		PlayedAt: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to append play record for song %s: %w", song.ID, err)
	}
	return nil
}

// Recent returns the most recent plays, newest first.
func (r *gormHistoryRepository) Recent(ctx context.Context, limit int) ([]model.PlayRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var records []model.PlayRecord
	err := r.db.WithContext(ctx).
		Order("played_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query play records: %w", err)
	}
	return records, nil
}

// CountForSong returns how many times the song was played.
func (r *gormHistoryRepository) CountForSong(ctx context.Context, songID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.PlayRecord{}).
		Where("song_id = ?", songID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for song %s: %w", songID, err)
	}
	return count, nil
}
