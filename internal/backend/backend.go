// Package backend locates and drives the external media extraction tool.
// All media work (metadata extraction, format selection, transcoding) is
// delegated to yt-dlp; this package only resolves an executable, builds its
// argument lists and decodes what it prints.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trackdl/internal/media"
)

// ErrUnavailable is returned when no resolver produced a usable backend.
var ErrUnavailable = errors.New("yt-dlp backend unavailable")

// Handle is a resolved, runnable backend installation.
type Handle struct {
	Executable string // Absolute path of the yt-dlp executable
	Version    string // Reported version, if the resolver knows it
	Source     string // Name of the resolver that found it
}

func (h *Handle) String() string {
	if h.Version != "" {
		return fmt.Sprintf("%s (%s, via %s)", h.Executable, h.Version, h.Source)
	}
	return fmt.Sprintf("%s (via %s)", h.Executable, h.Source)
}

// Backend is the interface for extraction backends.
type Backend interface {
	// Info performs a metadata-only dry run.
	Info(ctx context.Context, url string) (*media.Track, error)

	// Download fetches the best audio and transcodes it. When opts.PrintInfo
	// is set the returned track holds the metadata printed by the backend;
	// otherwise it may be nil.
	Download(ctx context.Context, url string, opts Options) (*media.Track, error)
}

// Options configures a single download.
type Options struct {
	OutputDir      string
	Template       string // Output file template, e.g. "%(title)s.%(ext)s"
	AudioFormat    string
	AudioQuality   string
	PrintInfo      bool
	EmbedMetadata  bool
	EmbedThumbnail bool
	FFmpegLocation string
	Progress       func(Progress)
}

// Progress is a download progress snapshot.
type Progress struct {
	Title      string
	Downloaded int64
	Total      int64
	Started    time.Time
	ETA        time.Duration
}

// Fraction returns the completed share in [0, 1], or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Downloaded) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ExecError describes a failed backend invocation.
type ExecError struct {
	Op     string // "info" or "download"
	Stderr string // Captured standard error of the backend
	Err    error
}

func (e *ExecError) Error() string {
	if msg := lastLine(e.Stderr); msg != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// lastLine returns the last non-empty line of s, which is where yt-dlp
// prints its "ERROR: ..." summary.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
