// Package player launches local audio players for downloaded tracks.
// All player invocations use exec.Command with explicit argument slices;
// nothing is passed through a shell.
package player

import "context"

// Player is the interface for audio player implementations.
type Player interface {
	// Play plays the file at path from startPos seconds and blocks until the
	// player exits. Returns the last playback position in seconds when the
	// player reports it.
	Play(ctx context.Context, path, title string, startPos float64) (float64, error)

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
