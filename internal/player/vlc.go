package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool {
	_, err := exec.LookPath("vlc")
	return err == nil
}

func (v *VLC) args(path, title string, startPos float64) []string {
	args := []string{
		"--intf", "dummy",
		"--meta-title", title,
		"--play-and-exit",
	}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start-time=%.0f", startPos))
	}
	return append(args, "--", path)
}

// Play launches VLC without its interface. VLC has no IPC position
// tracking like mpv, so the position is always 0.
func (v *VLC) Play(ctx context.Context, path, title string, startPos float64) (float64, error) {
	cmd := exec.CommandContext(ctx, "vlc", v.args(path, title, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, nil // VLC exits non-zero on user close
		}
		return 0, fmt.Errorf("running vlc: %w", err)
	}

	return 0, nil
}
