package player

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// MPV implements the Player interface for mpv.
// Uses exec.Command with explicit args (no shell interpretation)
// and IPC via Unix socket at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

func (m *MPV) args(path, title, socketPath string, startPos float64) []string {
	args := []string{
		"--no-video",
		"--force-media-title=" + title,
		"--input-ipc-server=" + socketPath,
	}
	if startPos > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", startPos))
	}
	return append(args, "--", path)
}

// Play launches mpv in audio-only mode and returns the final playback position.
func (m *MPV) Play(ctx context.Context, path, title string, startPos float64) (float64, error) {
	// Create randomized IPC socket path (prevents symlink attacks)
	socketDir, err := os.MkdirTemp("", "trackdl-mpv-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	cmd := exec.CommandContext(ctx, "mpv", m.args(path, title, socketPath, startPos)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting mpv: %w", err)
	}

	pos := make(chan float64, 1)
	go func() {
		pos <- trackPosition(socketPath)
	}()

	// mpv returns non-zero on user quit, which is normal
	_ = cmd.Wait()

	select {
	case p := <-pos:
		return p, nil
	case <-time.After(time.Second):
		return 0, nil
	}
}

// trackPosition polls mpv's IPC socket for the current playback position
// until mpv closes the connection.
func trackPosition(socketPath string) float64 {
	// Wait for socket to appear
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return 0
	}
	defer conn.Close()

	return readPosition(conn)
}

// readPosition subscribes to time-pos on an mpv IPC connection and returns
// the last value seen before the stream ends.
func readPosition(conn io.ReadWriter) float64 {
	var lastPos float64

	cmd := map[string]interface{}{
		"command":    []interface{}{"observe_property", 1, "time-pos"},
		"request_id": 100,
	}
	data, _ := json.Marshal(cmd)
	data = append(data, '\n')
	conn.Write(data)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var event struct {
			Event string  `json:"event"`
			Name  string  `json:"name"`
			Data  float64 `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Name == "time-pos" && event.Data > 0 {
			lastPos = event.Data
		}
	}

	return lastPos
}

// FormatDuration formats seconds as H:MM:SS or M:SS.
func FormatDuration(seconds float64) string {
	s := int(seconds)
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
