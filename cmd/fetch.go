package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"trackdl/internal/backend"
	"trackdl/internal/config"
	"trackdl/internal/download"
	"trackdl/internal/library"
	"trackdl/internal/media"
	"trackdl/internal/pagemeta"
	"trackdl/internal/ui"
)

var soundcloudCmd = newFetchCmd(download.SoundCloud(), func(c *config.Config) config.Variant { return c.SoundCloud })

var youtubeCmd = newFetchCmd(download.YouTube(), func(c *config.Config) config.Variant { return c.YouTube })

// newFetchCmd builds the download command of one platform variant. Every
// outcome, including a bad config, ends in one JSON line on stdout.
func newFetchCmd(base download.Profile, variant func(*config.Config) config.Variant) *cobra.Command {
	return &cobra.Command{
		Use:   base.Name + " <source-url> <output-directory>",
		Short: fmt.Sprintf("Download one %s track as audio", base.Label),
		Args:  cobra.ArbitraryArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return nil
			}
			if err := loadConfig(cmd, args); err != nil {
				writeResult(cmd.OutOrStdout(), media.Failed(err.Error(), ""))
				return &exitError{code: 1}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return fetchRun(cmd, args, base, variant)
		},
	}
}

func fetchRun(cmd *cobra.Command, args []string, base download.Profile, variant func(*config.Config) config.Variant) error {
	out := cmd.OutOrStdout()

	if len(args) < 2 {
		writeResult(out, media.Failed(fmt.Sprintf("Usage: trackdl %s <%s_url> <output_directory>", base.Name, base.Name), ""))
		return &exitError{code: 1}
	}

	req := media.Request{URL: args[0], OutputDir: args[1]}
	p := base.WithConfig(cfg, variant(cfg))
	debugf("profile: %+v", p)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	d := download.New(p, backend.DefaultChain(backend.SystemEnv(), extraPaths(), p.AutoInstall))
	d.Logf = ui.Stderr.Logf
	if cfg.PageFallback {
		d.Fallback = pagemeta.New(nil, p.OEmbed)
	}

	var bar *ui.Progress
	if cfg.Progress {
		bar = ui.StartProgress(req.URL)
	}
	if bar != nil {
		d.Progress = bar.Update
		d.Logf = bar.Logf
	}

	d.Logf("Starting %s download for URL: %s", p.Label, req.URL)
	d.Logf("Output directory: %s", req.OutputDir)

	res, err := d.Fetch(ctx, req)
	bar.Stop()

	if res.Success && cfg.Library {
		recordDownload(context.WithoutCancel(ctx), p.Name, req, res)
	}

	writeResult(out, res)

	if errors.Is(err, download.ErrMissingBackend) && p.ExitOnMissingBackend {
		return &exitError{code: 1}
	}
	return nil
}

// extraPaths expands the configured extra yt-dlp locations.
func extraPaths() []string {
	var paths []string
	for _, p := range cfg.ExtraPaths {
		expanded, err := config.ExpandPath(p)
		if err != nil {
			debugf("skipping extra path %q: %v", p, err)
			continue
		}
		paths = append(paths, expanded)
	}
	return paths
}

// recordDownload adds a successful download to the library. Failures are
// only logged.
func recordDownload(ctx context.Context, platform string, req media.Request, res media.Result) {
	entry, err := library.NewEntry(platform, req, res)
	if err != nil {
		debugf("library entry: %v", err)
		return
	}

	store, err := library.OpenDefault(ctx)
	if err != nil {
		ui.Stderr.Logf("Warning: opening library: %v", err)
		return
	}
	defer store.Close()

	if err := store.Add(ctx, entry); err != nil {
		ui.Stderr.Logf("Warning: %v", err)
		return
	}
	debugf("recorded %s in library as %s", entry.Path, entry.ID)
}

// writeResult prints the result as a single JSON line.
func writeResult(w io.Writer, res media.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		data = []byte(`{"success":false,"error":"encoding result failed"}`)
	}
	fmt.Fprintln(w, string(data))
}
