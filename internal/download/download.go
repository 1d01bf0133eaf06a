// Package download turns one source URL into one transcoded audio file and a
// result record. The backend does the media work; this package validates the
// request, picks the produced file out of the output directory and names it
// after the track.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime/debug"
	"strings"

	"trackdl/internal/backend"
	"trackdl/internal/httputil"
	"trackdl/internal/media"
)

// Error classes reported through Fetch.
var (
	ErrMissingBackend = backend.ErrUnavailable
	ErrInvalidURL     = errors.New("invalid URL")
	ErrMetadata       = errors.New("failed to get track info")
	ErrDownload       = errors.New("download failed")
	ErrPostProcess    = errors.New("downloaded file not found")
)

// partialSuffixes mark files yt-dlp is still writing.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

// HandleResolver locates a runnable backend.
type HandleResolver interface {
	Resolve(ctx context.Context) (*backend.Handle, error)
}

// MetadataSource supplies metadata when the backend dry run fails.
type MetadataSource interface {
	Fetch(ctx context.Context, pageURL string) (*media.Track, error)
}

// Downloader runs single-track downloads for one profile.
type Downloader struct {
	Profile  Profile
	Resolver HandleResolver
	Open     func(*backend.Handle) backend.Backend
	Fallback MetadataSource                  // optional
	Progress func(backend.Progress)          // optional
	Logf     func(format string, args ...any) // optional
	LookPath func(file string) (string, error)
}

// New creates a Downloader that drives yt-dlp found by r.
func New(p Profile, r HandleResolver) *Downloader {
	return &Downloader{
		Profile:  p,
		Resolver: r,
		Open: func(h *backend.Handle) backend.Backend {
			return backend.NewYTDLP(h)
		},
		LookPath: exec.LookPath,
	}
}

// Fetch downloads req.URL into req.OutputDir. The result is always usable;
// the returned error carries the failure class for callers that map it to an
// exit status, and is nil on success.
func (d *Downloader) Fetch(ctx context.Context, req media.Request) (res media.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
			res = media.Failed(oneLine(err.Error()), d.trace(fmt.Sprintf("%v\n\n%s", r, debug.Stack())))
		}
	}()

	res, err = d.fetch(ctx, req)
	if err != nil {
		d.logf("Error: %v", err)
		return media.Failed(oneLine(err.Error()), d.trace(errorTrace(err))), err
	}
	return res, nil
}

func (d *Downloader) fetch(ctx context.Context, req media.Request) (media.Result, error) {
	p := d.Profile

	if p.ValidateHost {
		if err := httputil.ValidateHost(req.URL, p.Domains); err != nil {
			return media.Result{}, fmt.Errorf("%w: not a valid %s URL: %v", ErrInvalidURL, p.Label, err)
		}
	}

	h, err := d.Resolver.Resolve(ctx)
	if err != nil {
		return media.Result{}, err
	}
	d.logf("Using yt-dlp from: %s", h)
	d.checkFFmpeg()

	dir, err := filepath.Abs(req.OutputDir)
	if err != nil {
		return media.Result{}, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return media.Result{}, fmt.Errorf("creating output directory: %w", err)
	}

	be := d.Open(h)
	existing := listNames(dir)

	var track *media.Track
	if p.MetadataMode != ModeCombined {
		track, err = d.metadata(ctx, be, req.URL)
		if err != nil {
			return media.Result{}, err
		}
	}

	d.logf("Downloading track from: %s", req.URL)
	printed, err := be.Download(ctx, req.URL, backend.Options{
		OutputDir:      dir,
		Template:       p.Template,
		AudioFormat:    p.AudioFormat,
		AudioQuality:   p.AudioQuality,
		PrintInfo:      p.MetadataMode == ModeCombined,
		EmbedMetadata:  p.EmbedMetadata,
		EmbedThumbnail: p.EmbedThumbnail,
		FFmpegLocation: p.FFmpegLocation,
		Progress:       d.Progress,
	})
	switch {
	case err == nil:
	case p.MetadataMode == ModeCombined && errors.Is(err, backend.ErrNoInfo):
		d.logf("Warning: could not read track info from download output, using placeholders")
	case ctx.Err() != nil:
		return media.Result{}, fmt.Errorf("%w: %w", ErrDownload, ctx.Err())
	default:
		return media.Result{}, fmt.Errorf("%w: %w", ErrDownload, err)
	}
	if track == nil {
		track = printed
	}
	if track == nil {
		track = media.Placeholder()
	}
	track.Normalize()

	path := ""
	if printed != nil {
		path = d.reportedFile(dir, printed.Filepath)
	}
	if path == "" {
		path, err = d.producedFile(dir, existing)
		if err != nil {
			return media.Result{}, err
		}
	}

	path = d.normalize(path, track)

	var size *int64
	if fi, err := os.Stat(path); err == nil {
		n := fi.Size()
		size = &n
	} else {
		d.logf("Warning: could not read file size: %v", err)
	}

	return media.Succeeded(filepath.Base(path), track, size), nil
}

// metadata performs the dry run and applies the profile's fallback policy.
func (d *Downloader) metadata(ctx context.Context, be backend.Backend, url string) (*media.Track, error) {
	track, err := be.Info(ctx, url)
	if err == nil {
		return track, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, ctx.Err())
	}
	if d.Profile.MetadataMode == ModeStrict {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	d.logf("Warning: %v: %v", ErrMetadata, err)
	if d.Fallback != nil {
		t, ferr := d.Fallback.Fetch(ctx, url)
		if ferr == nil {
			d.logf("Using metadata from the track page")
			return t, nil
		}
		d.logf("Warning: page metadata: %v", ferr)
	}
	return media.Placeholder(), nil
}

// reportedFile returns the file the backend says it wrote, inside dir and
// with the target extension, when it exists. The backend reports the name
// before audio extraction replaces the extension.
func (d *Downloader) reportedFile(dir, reported string) string {
	if reported == "" {
		return ""
	}
	base := filepath.Base(reported)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + d.Profile.Extension()
	path, err := httputil.SafeDownloadPath(dir, base)
	if err != nil {
		return ""
	}
	if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
		return ""
	}
	return path
}

// producedFile picks the file the download created. Files that were in dir
// before the download only count when nothing new appeared, which is what
// yt-dlp does for a track it already downloaded.
func (d *Downloader) producedFile(dir string, existing map[string]bool) (string, error) {
	ext := d.Profile.Extension()
	path, err := NewestFile(dir, ext, existing)
	if err == nil || len(existing) == 0 {
		return path, err
	}
	old, oerr := NewestFile(dir, ext, nil)
	if oerr != nil {
		return "", err
	}
	d.logf("Warning: no new %s file appeared, using existing %s", ext, filepath.Base(old))
	return old, nil
}

// listNames returns the names of the entries in dir.
func listNames(dir string) map[string]bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

// NewestFile returns the most recently modified regular file in dir with the
// given extension whose name is not in skip. Partial downloads are skipped.
func NewestFile(dir, ext string, skip map[string]bool) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrPostProcess, dir, err)
	}

	var newest string
	var newestInfo os.FileInfo
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || isPartial(name) || skip[name] {
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if newestInfo == nil || fi.ModTime().After(newestInfo.ModTime()) {
			newest, newestInfo = name, fi
		}
	}

	if newestInfo == nil {
		return "", fmt.Errorf("%w: no %s file in %s", ErrPostProcess, ext, dir)
	}
	return filepath.Join(dir, newest), nil
}

func isPartial(name string) bool {
	// ffmpeg post-processing writes "<name>.temp.<ext>".
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, s := range partialSuffixes {
		if strings.HasSuffix(name, s) || strings.HasSuffix(stem, s) {
			return true
		}
	}
	return false
}

// CanonicalName returns "<artist> - <title><ext>" with both parts cleaned.
// A part that cleans to nothing becomes its placeholder.
func CanonicalName(track *media.Track, ext string, mode httputil.SanitizeMode) string {
	return artistPrefix(track, mode) + cleanOr(track.Title, media.UnknownTitle, mode) + ext
}

func artistPrefix(track *media.Track, mode httputil.SanitizeMode) string {
	return cleanOr(track.Artist, media.UnknownArtist, mode) + " - "
}

func cleanOr(s, fallback string, mode httputil.SanitizeMode) string {
	if c := httputil.CleanComponent(s, mode); c != "" {
		return c
	}
	return httputil.CleanComponent(fallback, mode)
}

// normalize renames path after the track unless it already carries the
// artist prefix. On failure the original path is kept.
func (d *Downloader) normalize(path string, track *media.Track) string {
	mode := d.Profile.Sanitize
	name := filepath.Base(path)
	if strings.HasPrefix(name, artistPrefix(track, mode)) {
		return path
	}

	target, err := httputil.SafeDownloadPath(filepath.Dir(path), CanonicalName(track, filepath.Ext(name), mode))
	if err != nil {
		d.logf("Warning: failed to rename file: %v", err)
		return path
	}
	if target == path {
		return path
	}
	if err := os.Rename(path, target); err != nil {
		d.logf("Warning: failed to rename file: %v", err)
		return path
	}
	return target
}

func (d *Downloader) checkFFmpeg() {
	if d.Profile.FFmpegLocation != "" || d.LookPath == nil {
		return
	}
	if _, err := d.LookPath("ffmpeg"); err != nil {
		d.logf("Warning: ffmpeg not found in PATH, audio conversion will fail")
	}
}

func (d *Downloader) trace(t string) string {
	if !d.Profile.IncludeTrace {
		return ""
	}
	return t
}

func (d *Downloader) logf(format string, args ...any) {
	if d.Logf != nil {
		d.Logf(format, args...)
	}
}

// errorTrace renders the wrapped error chain and any backend stderr.
func errorTrace(err error) string {
	var b strings.Builder
	writeChain(&b, err, 0)
	var xe *backend.ExecError
	if errors.As(err, &xe) {
		if stderr := strings.TrimSpace(xe.Stderr); stderr != "" {
			b.WriteString("\nyt-dlp stderr:\n")
			b.WriteString(stderr)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func writeChain(b *strings.Builder, err error, depth int) {
	fmt.Fprintf(b, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if next := u.Unwrap(); next != nil {
			writeChain(b, next, depth+1)
		}
	case interface{ Unwrap() []error }:
		for _, next := range u.Unwrap() {
			writeChain(b, next, depth+1)
		}
	}
}

// oneLine folds a multi-line error into a single line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(s, "\n", "; ")), " ")
}
