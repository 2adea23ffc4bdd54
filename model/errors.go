package model

import "errors"

// Sentinel errors shared across stores and handlers. Wrap with fmt.Errorf
// and %w, test with errors.Is.
var (
	// ErrValidation marks rejected user input (missing upload fields).
	// Surfaced once at the originating request, nothing partial is written.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing record or blob. Playback paths treat it
	// as an unavailable source rather than a failure.
	ErrNotFound = errors.New("not found")

	// ErrPlaybackUnavailable marks a source that cannot be played right
	// now. Logged, never fatal; the controller stays paused.
	ErrPlaybackUnavailable = errors.New("playback unavailable")
)
