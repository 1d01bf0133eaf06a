package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"trackdl/internal/library"
	"trackdl/internal/player"
	"trackdl/internal/ui"
)

var flagLibraryJSON bool

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "List downloaded tracks",
	Args:  cobra.NoArgs,
	RunE:  libraryRun,
}

var libraryRmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Remove a track from the library (the file is kept)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  libraryRmRun,
}

func init() {
	libraryCmd.Flags().BoolVarP(&flagLibraryJSON, "json", "j", false, "Output entries as JSON")
	libraryCmd.AddCommand(libraryRmCmd)
}

func libraryRun(cmd *cobra.Command, args []string) error {
	store, err := library.OpenDefault(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagLibraryJSON {
		if entries == nil {
			entries = []library.Entry{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No downloads in the library yet.")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		size := "-"
		if e.Size != nil {
			size = humanize.Bytes(uint64(*e.Size))
		}
		rows[i] = []string{
			shortID(e.ID),
			e.Artist,
			e.Title,
			player.FormatDuration(float64(e.Duration)),
			size,
			humanize.Time(e.CreatedAt),
		}
	}
	fmt.Fprintln(out, ui.NewStyles(out).Table(
		[]string{"ID", "ARTIST", "TITLE", "LENGTH", "SIZE", "ADDED"}, rows))
	return nil
}

func libraryRmRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := library.OpenDefault(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(ctx)
	if err != nil {
		return err
	}

	var target library.Entry
	if len(args) == 1 {
		matches := matchID(entries, args[0])
		switch len(matches) {
		case 0:
			return fmt.Errorf("%w: %s", library.ErrNotFound, args[0])
		case 1:
			target = matches[0]
		default:
			return fmt.Errorf("id prefix %q matches %d entries", args[0], len(matches))
		}
	} else {
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No downloads in the library yet.")
			return nil
		}
		idx, err := ui.Select("Remove", library.FormatForDisplay(entries))
		if err != nil {
			return err
		}
		target = entries[idx]
		ok, err := ui.Confirm(fmt.Sprintf("Remove %s - %s?", target.Artist, target.Title))
		if err != nil || !ok {
			return err
		}
	}

	if err := store.Remove(ctx, target.ID); err != nil {
		return err
	}
	debugf("removed %s (%s)", target.ID, target.Path)
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s - %s\n", target.Artist, target.Title)
	return nil
}

// shortID is the id prefix shown in the listing.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// matchID returns entries whose id equals or starts with prefix.
func matchID(entries []library.Entry, prefix string) []library.Entry {
	var matches []library.Entry
	for _, e := range entries {
		if e.ID == prefix {
			return []library.Entry{e}
		}
		if strings.HasPrefix(e.ID, prefix) {
			matches = append(matches, e)
		}
	}
	return matches
}
