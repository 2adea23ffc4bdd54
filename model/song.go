package model

import "time"

// Song is a playable catalog entry. Uploaded songs are projected into the
// same shape with AudioSrc left empty; their source is resolved from the
// blob store just before playback.
type Song struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	CoverArt string `json:"coverArt"`
	AudioSrc string `json:"audioSrc,omitempty"`
	Playlist string `json:"playlist,omitempty"`
	// Uploaded marks songs whose audio lives in the blob store under ID.
	Uploaded bool `json:"uploaded,omitempty"`
}

// UploadedSong is the persisted metadata record for a user upload.
// AudioKey equals ID and names the paired blob store object.
type UploadedSong struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	CoverArt   string `json:"coverArt"`
	AudioKey   string `json:"audioKey"`
	UploadDate string `json:"uploadDate"`
}

// Song projects an uploaded record into the common song shape.
func (u *UploadedSong) Song() Song {
	return Song{
		ID:       u.ID,
		Title:    u.Title,
		Artist:   u.Artist,
		CoverArt: u.CoverArt,
		Uploaded: true,
	}
}

// PlayRecord is one archived play, stored in MySQL. Unlike the bounded
// recent list it is append-only.
type PlayRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SongID    string    `json:"songId" gorm:"size:64;index"`
	Title     string    `json:"title" gorm:"size:255"`
	Artist    string    `json:"artist" gorm:"size:255"`
	Playlist  string    `json:"playlist" gorm:"size:255"`
	Uploaded  bool      `json:"uploaded"`
	PlayedAt  time.Time `json:"playedAt" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName keeps the GORM table name explicit.
func (PlayRecord) TableName() string {
	return "play_records"
}

// PlaylistGroup is one named group of catalog songs, in catalog order.
type PlaylistGroup struct {
	Name     string `json:"name"`
	CoverArt string `json:"coverArt"`
	Songs    []Song `json:"songs"`
}
