// Package player implements the playback controller: the per-page state
// machine behind the mini and fullscreen player surfaces. Exactly one
// controller is live per page session; both surfaces read from and write to
// the same instance, so switching views never interrupts playback.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"WaveFM/logger"
	"WaveFM/model"
)

// ErrNoQueue is returned by Advance on sessions without a playlist queue.
var ErrNoQueue = errors.New("advance requires a playlist queue")

// Direction selects the neighbor in Advance.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
)

// Recorder receives each selected song on recency-tracking sessions.
type Recorder interface {
	Record(ctx context.Context, song model.Song) error
}

// QueueProvider resolves the playback queue containing the given song, in
// playback order. Playlist sessions resolve the song's playlist; sessions
// without a provider do not support next/previous.
type QueueProvider func(current model.Song) []model.Song

// Controller is one playback state machine. A controller with no current
// song is idle; with a song it is either playing or paused. All methods are
// safe for concurrent use.
type Controller struct {
	scope    model.Scope
	queueFor QueueProvider
	recorder Recorder
	onChange func(model.PlaybackState)

	mu           sync.Mutex
	currentSong  *model.Song
	isPlaying    bool
	currentTime  float64
	duration     float64
	volume       float64
	isMuted      bool
	isFullScreen bool
	lastActive   time.Time
}

// Options configures a controller.
type Options struct {
	Scope model.Scope
	// QueueProvider enables next/previous for playlist sessions. Advance
	// wraps at both ends of the resolved queue.
	QueueProvider QueueProvider
	// Recorder receives plays when the scope tracks recency. May be nil.
	Recorder Recorder
	// OnChange is invoked with a state snapshot after every mutation.
	OnChange func(model.PlaybackState)
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	c := &Controller{
		scope:      opts.Scope,
		queueFor:   opts.QueueProvider,
		recorder:   opts.Recorder,
		onChange:   opts.OnChange,
		volume:     0.7,
		lastActive: time.Now(),
	}
	if !TracksRecency(opts.Scope) {
		c.recorder = nil
	}
	return c
}

// Scope returns the session scope.
func (c *Controller) Scope() model.Scope {
	return c.scope
}

// snapshot builds a copy of the current state. Caller must hold c.mu.
func (c *Controller) snapshot() model.PlaybackState {
	state := model.PlaybackState{
		IsPlaying:    c.isPlaying,
		CurrentTime:  c.currentTime,
		Duration:     c.duration,
		Volume:       c.volume,
		IsMuted:      c.isMuted,
		IsFullScreen: c.isFullScreen,
	}
	if c.currentSong != nil {
		song := *c.currentSong
		state.CurrentSong = &song
	}
	return state
}

// notify publishes a snapshot taken under the lock. Caller must NOT hold c.mu.
func (c *Controller) notify(state model.PlaybackState) {
	if c.onChange != nil {
		c.onChange(state)
	}
}

// State returns a snapshot of the controller.
func (c *Controller) State() model.PlaybackState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// LastActive reports the time of the last mutation, for idle sweeping.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// SelectSong loads a song. Selecting the current song toggles play/pause;
// selecting a different song replaces it, resets progress and starts
// playing. On recency-tracking sessions the play is recorded.
func (c *Controller) SelectSong(ctx context.Context, song model.Song) {
	c.mu.Lock()
	c.lastActive = time.Now()

	if c.currentSong != nil && c.currentSong.ID == song.ID {
		c.isPlaying = !c.isPlaying
		state := c.snapshot()
		c.mu.Unlock()
		c.notify(state)
		return
	}

	selected := song
	c.currentSong = &selected
	c.isPlaying = true
	c.currentTime = 0
	c.duration = 0 // unknown until the surface reports metadata
	state := c.snapshot()
	c.mu.Unlock()

	if c.recorder != nil {
		if err := c.recorder.Record(ctx, song); err != nil {
			logger.Warn("failed to record play",
				logger.String("songId", song.ID), logger.ErrorField(err))
		}
	}
	c.notify(state)
}

// PlayPause toggles playback. It is a no-op while idle.
func (c *Controller) PlayPause() {
	c.mu.Lock()
	if c.currentSong == nil {
		c.mu.Unlock()
		return
	}
	c.lastActive = time.Now()
	c.isPlaying = !c.isPlaying
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// Seek moves the playhead, clamped to [0, duration]. While the duration is
// still unknown only the lower bound applies.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	if c.currentSong == nil {
		c.mu.Unlock()
		return
	}
	c.lastActive = time.Now()
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	c.currentTime = seconds
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// SetVolume sets the volume, clamped to [0, 1].
func (c *Controller) SetVolume(volume float64) {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.applyVolume(volume)
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// applyVolume stores the clamped volume and recomputes the muted flag from
// it: zero mutes, any audible level unmutes. The slider and the mute state
// are deliberately conflated, matching the player's long-standing behavior.
// The mute toggle bypasses this, which is how unmuting at a previously-zero
// volume leaves the effective volume at zero.
// Caller must hold c.mu.
func (c *Controller) applyVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	c.volume = volume
	c.isMuted = volume == 0
}

// ToggleMute flips the muted flag without touching the stored volume.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.isMuted = !c.isMuted
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// ToggleFullScreen switches which surface is active. This is purely a view
// concern: playback continues untouched.
func (c *Controller) ToggleFullScreen(fullScreen bool) {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.isFullScreen = fullScreen
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// Advance selects the circular neighbor of the current song within its
// containing queue, wrapping at both ends. Sessions without a queue
// provider, or with nothing playing, return ErrNoQueue.
func (c *Controller) Advance(ctx context.Context, direction Direction) error {
	c.mu.Lock()
	if c.queueFor == nil || c.currentSong == nil {
		c.mu.Unlock()
		return ErrNoQueue
	}

	current := *c.currentSong
	queue := c.queueFor(current)
	if len(queue) == 0 {
		c.mu.Unlock()
		return ErrNoQueue
	}

	index := -1
	for i, song := range queue {
		if song.ID == current.ID {
			index = i
			break
		}
	}

	var next model.Song
	switch direction {
	case DirectionPrevious:
		next = queue[(index-1+len(queue))%len(queue)]
	default:
		next = queue[(index+1)%len(queue)]
	}
	c.mu.Unlock()

	c.SelectSong(ctx, next)
	return nil
}

// OnTimeUpdate records playback progress reported by the active surface.
// Reports for a song that is no longer current are discarded.
func (c *Controller) OnTimeUpdate(songID string, seconds float64) {
	c.mu.Lock()
	if c.currentSong == nil || c.currentSong.ID != songID {
		c.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	c.currentTime = seconds
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// OnDurationKnown records the media duration once the surface has loaded
// metadata. Stale reports are discarded.
func (c *Controller) OnDurationKnown(songID string, seconds float64) {
	c.mu.Lock()
	if c.currentSong == nil || c.currentSong.ID != songID {
		c.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	c.duration = seconds
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// OnEnded handles natural end of playback. Queue sessions advance to the
// next song (wrapping at the end); others rewind and pause.
func (c *Controller) OnEnded(ctx context.Context, songID string) {
	c.mu.Lock()
	if c.currentSong == nil || c.currentSong.ID != songID {
		c.mu.Unlock()
		return
	}
	hasQueue := c.queueFor != nil
	if !hasQueue {
		c.isPlaying = false
		c.currentTime = 0
		state := c.snapshot()
		c.mu.Unlock()
		c.notify(state)
		return
	}
	c.mu.Unlock()

	if err := c.Advance(ctx, DirectionNext); err != nil {
		if !errors.Is(err, ErrNoQueue) {
			logger.Warn("failed to advance after track end", logger.ErrorField(err))
		}
		c.mu.Lock()
		c.isPlaying = false
		c.currentTime = 0
		state := c.snapshot()
		c.mu.Unlock()
		c.notify(state)
	}
}

// Clear stops playback and drops the current song, returning the
// controller to idle. Used when the owning page unmounts and when the
// current song's upload is removed.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.currentSong = nil
	c.isPlaying = false
	c.currentTime = 0
	c.duration = 0
	state := c.snapshot()
	c.mu.Unlock()
	c.notify(state)
}

// CurrentSongID returns the id of the loaded song, or "" while idle.
func (c *Controller) CurrentSongID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentSong == nil {
		return ""
	}
	return c.currentSong.ID
}
