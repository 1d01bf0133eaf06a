package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trackdl/internal/library"
	"trackdl/internal/player"
	"trackdl/internal/ui"
)

var flagFromStart bool

var playCmd = &cobra.Command{
	Use:   "play [query]",
	Short: "Play a downloaded track, resuming where it last stopped",
	Args:  cobra.ArbitraryArgs,
	RunE:  playRun,
}

func init() {
	playCmd.Flags().BoolVar(&flagFromStart, "from-start", false, "Ignore the saved position")
}

func playRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	store, err := library.OpenDefault(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	entries = filterEntries(entries, query)
	if len(entries) == 0 {
		if query != "" {
			return fmt.Errorf("no library entry matches %q", query)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No downloads in the library yet.")
		return nil
	}

	selected := entries[0]
	if len(entries) > 1 {
		idx, err := ui.Select("Play", library.FormatForDisplay(entries))
		if err != nil {
			return err
		}
		selected = entries[idx]
	}
	debugf("playing: %s (ID: %s)", selected.Path, selected.ID)

	if _, err := os.Stat(selected.Path); err != nil {
		return fmt.Errorf("track file is gone, remove it with 'trackdl library rm %s': %w", shortID(selected.ID), err)
	}

	p := player.New(cfg.Player)
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", cfg.Player)
	}

	startPos := selected.ResumeAt()
	if flagFromStart {
		startPos = 0
	}
	if startPos > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Resuming from %s\n", player.FormatDuration(startPos))
	}

	lastPos, err := p.Play(ctx, selected.Path, selected.Artist+" - "+selected.Title, startPos)
	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	if lastPos > 0 {
		debugf("stopped at %s", player.FormatDuration(lastPos))
		if err := store.SetPosition(context.WithoutCancel(ctx), selected.ID, lastPos); err != nil {
			ui.Stderr.Logf("Warning: %v", err)
		}
	}
	return nil
}

// filterEntries keeps entries whose artist or title contains every word of
// query, ignoring case.
func filterEntries(entries []library.Entry, query string) []library.Entry {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return entries
	}

	var matches []library.Entry
	for _, e := range entries {
		hay := strings.ToLower(e.Artist + " " + e.Title)
		ok := true
		for _, w := range words {
			if !strings.Contains(hay, w) {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, e)
		}
	}
	return matches
}
