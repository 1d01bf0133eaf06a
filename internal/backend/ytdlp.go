package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"trackdl/internal/media"
)

// progressInterval is how often yt-dlp progress is forwarded.
const progressInterval = 250 * time.Millisecond

// YTDLP drives a resolved yt-dlp executable through go-ytdlp.
type YTDLP struct {
	handle *Handle
}

// NewYTDLP creates a backend bound to a resolved executable.
func NewYTDLP(h *Handle) *YTDLP {
	return &YTDLP{handle: h}
}

func (y *YTDLP) command() *ytdlp.Command {
	return ytdlp.New().
		SetExecutable(y.handle.Executable).
		NoPlaylist().
		NoWarnings()
}

// Info runs yt-dlp in simulate mode and reads the info it prints.
func (y *YTDLP) Info(ctx context.Context, url string) (*media.Track, error) {
	res, err := y.command().
		DumpJSON().
		SkipDownload().
		Run(ctx, url)
	if err != nil {
		return nil, &ExecError{Op: "info", Stderr: stderrOf(res), Err: err}
	}

	track, err := trackFromResult(res)
	if err != nil {
		return nil, fmt.Errorf("decoding track info: %w", err)
	}
	return track, nil
}

// Download fetches the best audio stream and lets yt-dlp transcode it with ffmpeg.
func (y *YTDLP) Download(ctx context.Context, url string, opts Options) (*media.Track, error) {
	dl := y.command().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(opts.AudioFormat).
		AudioQuality(opts.AudioQuality).
		NoMtime().
		Output(filepath.Join(opts.OutputDir, opts.Template))

	if opts.PrintInfo {
		dl.DumpJSON().NoSimulate()
	}
	if opts.EmbedMetadata {
		dl.EmbedMetadata()
	}
	if opts.EmbedThumbnail {
		dl.EmbedThumbnail()
	}
	if opts.FFmpegLocation != "" {
		dl.FFmpegLocation(opts.FFmpegLocation)
	}
	if opts.Progress != nil {
		dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
			opts.Progress(toProgress(&update))
		})
	}

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, &ExecError{Op: "download", Stderr: stderrOf(res), Err: err}
	}

	if !opts.PrintInfo {
		return nil, nil
	}
	track, err := trackFromResult(res)
	if err != nil {
		return nil, fmt.Errorf("decoding track info: %w", err)
	}
	return track, nil
}

func toProgress(update *ytdlp.ProgressUpdate) Progress {
	p := Progress{
		Downloaded: int64(update.DownloadedBytes),
		Total:      int64(update.TotalBytes),
		Started:    update.Started,
	}
	if eta := update.ETA(); eta > 0 {
		p.ETA = eta
	}
	if update.Info != nil && update.Info.Title != nil {
		p.Title = *update.Info.Title
	}
	return p
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}
