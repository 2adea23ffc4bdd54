package player

import (
	"context"
	"testing"

	"WaveFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	plays []model.Song
}

func (r *fakeRecorder) Record(_ context.Context, song model.Song) error {
	r.plays = append(r.plays, song)
	return nil
}

func testSongs() []model.Song {
	return []model.Song{
		{ID: "s1", Title: "First", Artist: "A", Playlist: "Chill"},
		{ID: "s2", Title: "Second", Artist: "B", Playlist: "Chill"},
		{ID: "s3", Title: "Third", Artist: "C", Playlist: "Chill"},
	}
}

func staticQueue(songs []model.Song) QueueProvider {
	return func(model.Song) []model.Song { return songs }
}

func TestNewControllerDefaults(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	state := c.State()

	assert.Nil(t, state.CurrentSong)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, 0.7, state.Volume)
	assert.False(t, state.IsMuted)
	assert.False(t, state.IsFullScreen)
}

func TestSelectSongStartsPlayback(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewController(Options{Scope: model.ScopeHome, Recorder: rec})

	song := testSongs()[0]
	c.SelectSong(context.Background(), song)

	state := c.State()
	require.NotNil(t, state.CurrentSong)
	assert.Equal(t, "s1", state.CurrentSong.ID)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, float64(0), state.CurrentTime)
	require.Len(t, rec.plays, 1)
	assert.Equal(t, "s1", rec.plays[0].ID)
}

func TestSelectSameSongTogglesPlayPause(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewController(Options{Scope: model.ScopeHome, Recorder: rec})

	song := testSongs()[0]
	c.SelectSong(context.Background(), song)
	c.SelectSong(context.Background(), song)

	assert.False(t, c.State().IsPlaying)
	// The toggle is not a new play.
	assert.Len(t, rec.plays, 1)

	c.SelectSong(context.Background(), song)
	assert.True(t, c.State().IsPlaying)
	assert.Len(t, rec.plays, 1)
}

func TestSelectDifferentSongResetsProgress(t *testing.T) {
	songs := testSongs()
	c := NewController(Options{Scope: model.ScopeHome})

	c.SelectSong(context.Background(), songs[0])
	c.OnDurationKnown("s1", 180)
	c.OnTimeUpdate("s1", 42)

	c.SelectSong(context.Background(), songs[1])
	state := c.State()
	assert.Equal(t, "s2", state.CurrentSong.ID)
	assert.Equal(t, float64(0), state.CurrentTime)
	assert.Equal(t, float64(0), state.Duration)
	assert.True(t, state.IsPlaying)
}

func TestRecorderDroppedForNonRecencyScope(t *testing.T) {
	rec := &fakeRecorder{}
	c := NewController(Options{Scope: model.ScopeFavorites, Recorder: rec})

	c.SelectSong(context.Background(), testSongs()[0])
	assert.Empty(t, rec.plays)
}

func TestPlayPauseIdleIsNoop(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.PlayPause()
	assert.False(t, c.State().IsPlaying)
	assert.Nil(t, c.State().CurrentSong)
}

func TestSeekClampsToDuration(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SelectSong(context.Background(), testSongs()[0])
	c.OnDurationKnown("s1", 100)

	c.Seek(250)
	assert.Equal(t, float64(100), c.State().CurrentTime)

	c.Seek(-5)
	assert.Equal(t, float64(0), c.State().CurrentTime)
}

func TestSeekBeforeDurationKnownOnlyClampsLow(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SelectSong(context.Background(), testSongs()[0])

	c.Seek(500)
	assert.Equal(t, float64(500), c.State().CurrentTime)
}

func TestSetVolumeZeroMutes(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})

	c.SetVolume(0)
	state := c.State()
	assert.Equal(t, float64(0), state.Volume)
	assert.True(t, state.IsMuted)

	// Unmuting leaves the volume where the slider put it.
	c.ToggleMute()
	state = c.State()
	assert.False(t, state.IsMuted)
	assert.Equal(t, float64(0), state.Volume)
}

func TestSetVolumeWhileMutedUnmutes(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.ToggleMute()
	require.True(t, c.State().IsMuted)

	// Moving the slider to an audible level recomputes the muted flag.
	c.SetVolume(0.4)
	state := c.State()
	assert.False(t, state.IsMuted)
	assert.Equal(t, 0.4, state.Volume)
}

func TestSetVolumeClamps(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})

	c.SetVolume(1.5)
	assert.Equal(t, float64(1), c.State().Volume)

	c.SetVolume(-0.2)
	state := c.State()
	assert.Equal(t, float64(0), state.Volume)
	assert.True(t, state.IsMuted)
}

func TestToggleMuteKeepsVolume(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SetVolume(0.5)

	c.ToggleMute()
	state := c.State()
	assert.True(t, state.IsMuted)
	assert.Equal(t, 0.5, state.Volume)

	c.ToggleMute()
	assert.False(t, c.State().IsMuted)
}

func TestToggleFullScreenLeavesPlaybackAlone(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SelectSong(context.Background(), testSongs()[0])
	c.OnTimeUpdate("s1", 30)

	c.ToggleFullScreen(true)
	state := c.State()
	assert.True(t, state.IsFullScreen)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, float64(30), state.CurrentTime)

	c.ToggleFullScreen(false)
	assert.False(t, c.State().IsFullScreen)
}

func TestAdvanceWrapsAtBothEnds(t *testing.T) {
	songs := testSongs()
	c := NewController(Options{Scope: model.ScopePlaylist, QueueProvider: staticQueue(songs)})
	ctx := context.Background()

	c.SelectSong(ctx, songs[2])
	require.NoError(t, c.Advance(ctx, DirectionNext))
	assert.Equal(t, "s1", c.State().CurrentSong.ID)

	require.NoError(t, c.Advance(ctx, DirectionPrevious))
	assert.Equal(t, "s3", c.State().CurrentSong.ID)
}

func TestAdvanceStepsThroughQueue(t *testing.T) {
	songs := testSongs()
	c := NewController(Options{Scope: model.ScopePlaylist, QueueProvider: staticQueue(songs)})
	ctx := context.Background()

	c.SelectSong(ctx, songs[0])
	require.NoError(t, c.Advance(ctx, DirectionNext))
	assert.Equal(t, "s2", c.State().CurrentSong.ID)
	assert.True(t, c.State().IsPlaying)
}

func TestAdvanceWithoutQueue(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SelectSong(context.Background(), testSongs()[0])

	err := c.Advance(context.Background(), DirectionNext)
	assert.ErrorIs(t, err, ErrNoQueue)
}

func TestAdvanceWhileIdle(t *testing.T) {
	c := NewController(Options{Scope: model.ScopePlaylist, QueueProvider: staticQueue(testSongs())})

	err := c.Advance(context.Background(), DirectionNext)
	assert.ErrorIs(t, err, ErrNoQueue)
}

func TestOnEndedWithQueueAdvances(t *testing.T) {
	songs := testSongs()
	c := NewController(Options{Scope: model.ScopePlaylist, QueueProvider: staticQueue(songs)})
	ctx := context.Background()

	c.SelectSong(ctx, songs[0])
	c.OnEnded(ctx, "s1")

	state := c.State()
	assert.Equal(t, "s2", state.CurrentSong.ID)
	assert.True(t, state.IsPlaying)
}

func TestOnEndedWithoutQueueRewindsAndPauses(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	ctx := context.Background()

	c.SelectSong(ctx, testSongs()[0])
	c.OnTimeUpdate("s1", 90)
	c.OnEnded(ctx, "s1")

	state := c.State()
	assert.Equal(t, "s1", state.CurrentSong.ID)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, float64(0), state.CurrentTime)
}

func TestStaleLifecycleReportsIgnored(t *testing.T) {
	songs := testSongs()
	c := NewController(Options{Scope: model.ScopeHome})
	ctx := context.Background()

	c.SelectSong(ctx, songs[0])
	c.SelectSong(ctx, songs[1])

	// Reports from the previous song arrive late and change nothing.
	c.OnTimeUpdate("s1", 55)
	c.OnDurationKnown("s1", 200)
	c.OnEnded(ctx, "s1")

	state := c.State()
	assert.Equal(t, "s2", state.CurrentSong.ID)
	assert.True(t, state.IsPlaying)
	assert.Equal(t, float64(0), state.CurrentTime)
	assert.Equal(t, float64(0), state.Duration)
}

func TestClearReturnsToIdle(t *testing.T) {
	c := NewController(Options{Scope: model.ScopeHome})
	c.SelectSong(context.Background(), testSongs()[0])
	c.SetVolume(0.3)

	c.Clear()
	state := c.State()
	assert.Nil(t, state.CurrentSong)
	assert.False(t, state.IsPlaying)
	assert.Equal(t, float64(0), state.CurrentTime)
	// Volume survives a clear; it belongs to the session, not the song.
	assert.Equal(t, 0.3, state.Volume)
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	var states []model.PlaybackState
	c := NewController(Options{
		Scope:    model.ScopeHome,
		OnChange: func(s model.PlaybackState) { states = append(states, s) },
	})

	c.SelectSong(context.Background(), testSongs()[0])
	c.PlayPause()

	require.Len(t, states, 2)
	assert.True(t, states[0].IsPlaying)
	assert.False(t, states[1].IsPlaying)
}

func TestTracksRecency(t *testing.T) {
	assert.True(t, TracksRecency(model.ScopeHome))
	assert.True(t, TracksRecency(model.ScopeUpload))
	assert.True(t, TracksRecency(model.ScopeRecent))
	assert.False(t, TracksRecency(model.ScopeFavorites))
	assert.False(t, TracksRecency(model.ScopePlaylist))
}
