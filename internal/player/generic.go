package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Generic implements the Player interface for players like iina and celluloid
// that accept mpv-compatible arguments.
type Generic struct {
	name string
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Available() bool {
	_, err := exec.LookPath(g.name)
	return err == nil
}

func (g *Generic) args(path, title string, startPos float64) []string {
	// Both iina and celluloid accept mpv-style flags
	args := []string{"--force-media-title=" + title}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", startPos))
	}
	return append(args, "--", path)
}

// Play launches the generic player. Position tracking is not supported.
func (g *Generic) Play(ctx context.Context, path, title string, startPos float64) (float64, error) {
	cmd := exec.CommandContext(ctx, g.name, g.args(path, title, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, nil
		}
		return 0, fmt.Errorf("running %s: %w", g.name, err)
	}

	return 0, nil
}
