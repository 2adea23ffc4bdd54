package model

// Scope names the page a player session belongs to. Scopes differ in
// whether selecting a song records it to the recent-play log and in
// whether the session carries a queue for next/previous.
type Scope string

const (
	ScopeHome      Scope = "home"
	ScopeFavorites Scope = "favorites"
	ScopeRecent    Scope = "recent"
	ScopePlaylist  Scope = "playlist"
	ScopeUpload    Scope = "upload"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeHome, ScopeFavorites, ScopeRecent, ScopePlaylist, ScopeUpload:
		return true
	}
	return false
}

// Surface names one of the two mutually exclusive player views.
type Surface string

const (
	SurfaceMini Surface = "mini"
	SurfaceFull Surface = "full"
)

// PlaybackState is a read-only snapshot of one controller instance.
type PlaybackState struct {
	CurrentSong  *Song   `json:"currentSong,omitempty"`
	IsPlaying    bool    `json:"isPlaying"`
	CurrentTime  float64 `json:"currentTime"`
	Duration     float64 `json:"duration"`
	Volume       float64 `json:"volume"`
	IsMuted      bool    `json:"isMuted"`
	IsFullScreen bool    `json:"isFullScreen"`
}

// Idle reports whether no song is loaded.
func (s PlaybackState) Idle() bool {
	return s.CurrentSong == nil
}
