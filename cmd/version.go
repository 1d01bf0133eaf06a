package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trackdl/internal/backend"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "trackdl %s\n", Version)

		h, err := backend.DefaultChain(backend.SystemEnv(), extraPaths(), false).Resolve(context.Background())
		if err != nil {
			fmt.Fprintln(out, "yt-dlp: not found")
			debugf("%v", err)
			return nil
		}
		fmt.Fprintf(out, "yt-dlp: %s\n", h)
		return nil
	},
}
