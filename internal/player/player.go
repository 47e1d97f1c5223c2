// Package player provides a secure interface for launching media
// players. All invocations use exec.Command with explicit argument
// slices; nothing is ever passed through a shell.
package player

import (
	"flick/internal/media"
)

// Player is the interface for media player implementations. Play blocks
// until the player process exits and reports what it could observe;
// a zero PlaybackResult means "no history update".
type Player interface {
	// Play starts playback of a stream from startPos seconds.
	Play(stream *media.Stream, title string, startPos float64, subFile string) (media.PlaybackResult, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) Player {
	switch name {
	case "mpv":
		return &MPV{}
	case "vlc":
		return &VLC{}
	case "iina", "celluloid":
		return &Generic{name: name}
	default:
		return &MPV{} // Default to mpv
	}
}
