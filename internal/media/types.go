// Package media defines shared types for the trackdl application.
package media

import "encoding/json"

// Placeholder metadata used when the backend cannot describe a track.
const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// Request is a single download request from the command line.
type Request struct {
	URL       string // Source page URL
	OutputDir string // Directory the audio file is written to
}

// Track holds the metadata of a single audio track.
type Track struct {
	Title     string // Display title
	Artist    string // Uploader, channel or artist
	Duration  int    // Length in whole seconds, never negative
	URL       string // Canonical page URL reported by the backend
	Filepath  string // Final path reported by the backend, if any
	Thumbnail string // Artwork URL
}

// Placeholder returns a track with the default placeholder metadata.
func Placeholder() *Track {
	return &Track{Title: UnknownTitle, Artist: UnknownArtist}
}

// Normalize fills empty fields with placeholders and clamps the duration.
func (t *Track) Normalize() {
	if t.Title == "" {
		t.Title = UnknownTitle
	}
	if t.Artist == "" {
		t.Artist = UnknownArtist
	}
	if t.Duration < 0 {
		t.Duration = 0
	}
}

// Result is the outcome of one invocation. It is serialized to a single JSON
// line on standard output.
type Result struct {
	Success   bool
	Filename  string
	Title     string
	Artist    string
	Duration  int
	FileSize  *int64 // nil when the size could not be read
	Error     string
	Traceback string
}

// Succeeded builds a successful result.
func Succeeded(filename string, track *Track, size *int64) Result {
	return Result{
		Success:  true,
		Filename: filename,
		Title:    track.Title,
		Artist:   track.Artist,
		Duration: track.Duration,
		FileSize: size,
	}
}

// Failed builds a failed result. trace may be empty.
func Failed(msg, trace string) Result {
	return Result{Error: msg, Traceback: trace}
}

type successBody struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration"`
	FileSize *int64 `json:"file_size,omitempty"`
}

type failureBody struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Traceback string `json:"traceback,omitempty"`
}

// MarshalJSON emits only the keys that belong to the outcome.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successBody{
			Success:  true,
			Filename: r.Filename,
			Title:    r.Title,
			Artist:   r.Artist,
			Duration: r.Duration,
			FileSize: r.FileSize,
		})
	}
	return json.Marshal(failureBody{
		Success:   false,
		Error:     r.Error,
		Traceback: r.Traceback,
	})
}
