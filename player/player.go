// Package player drives external media engines for the playback controller.
// The implementation targets mpv through its JSON-IPC interface.
package player

import "errors"

// ErrExited is reported to observers when the engine process goes away on its own.
var ErrExited = errors.New("player exited")

// Observer receives media events. Callbacks arrive on the player's own goroutine,
// wrap observers with Dispatch to move them onto an owning loop.
type Observer interface {
	// OnPositionTick reports the playback position in seconds while media is loaded.
	OnPositionTick(position float64)

	// OnMetadataReady reports the duration once the media has been probed.
	OnMetadataReady(duration float64)

	// OnPlaybackStateChanged reports the actual play state of the engine.
	OnPlaybackStateChanged(playing bool)

	// OnEnded reports that the loaded media played to its end.
	OnEnded()

	// OnError reports decode, format and process failures.
	OnError(err error)
}

// Player is a single media transport.
type Player interface {
	// Load replaces the current media with url, paused, positioned at start seconds.
	Load(url, title string, start float64) error

	// Play resumes playback of the loaded media.
	Play() error

	// Pause suspends playback.
	Pause() error

	// Stop unloads the current media.
	Stop() error

	// Seek moves to an absolute position in seconds.
	Seek(seconds float64) error

	// SetRate changes the playback speed multiplier.
	SetRate(rate float64) error

	// TimePos returns the current position in seconds.
	TimePos() (float64, error)

	// Subscribe registers an observer for media events.
	Subscribe(o Observer)

	// Close terminates the engine and releases its resources.
	Close() error
}
