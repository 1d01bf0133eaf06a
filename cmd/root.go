// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"trackdl/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagPlayer       string
	flagAudioFormat  string
	flagAudioQuality string
	flagNoProgress   bool
	flagNoLibrary    bool
	flagDebug        bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "trackdl",
	Short: "Download single audio tracks from SoundCloud and YouTube",
	Long: `trackdl downloads one track per invocation through yt-dlp, converts it
to audio, names it "<artist> - <title>" and prints a single JSON result line.
Downloads are kept in a local library for listing and playback.`,
	PersistentPreRunE: loadConfig,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Audio player: mpv | vlc | iina | celluloid")
	rootCmd.PersistentFlags().StringVarP(&flagAudioFormat, "audio-format", "f", "", "Target audio format: mp3 | m4a | opus | flac | wav | aac | vorbis")
	rootCmd.PersistentFlags().StringVarP(&flagAudioQuality, "audio-quality", "q", "", "Audio quality: 0-10 or a bitrate like 192K")
	rootCmd.PersistentFlags().BoolVar(&flagNoProgress, "no-progress", false, "Disable the progress bar")
	rootCmd.PersistentFlags().BoolVar(&flagNoLibrary, "no-library", false, "Do not record downloads in the library")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(soundcloudCmd)
	rootCmd.AddCommand(youtubeCmd)
	rootCmd.AddCommand(libraryCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagAudioFormat != "" {
		cfg.AudioFormat = flagAudioFormat
	}
	if flagAudioQuality != "" {
		cfg.AudioQuality = flagAudioQuality
	}
	if flagNoProgress {
		cfg.Progress = false
	}
	if flagNoLibrary {
		cfg.Library = false
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetOutput(os.Stderr)
	if cfg.Debug {
		log.SetPrefix("[trackdl] ")
	} else {
		log.SetFlags(0)
	}

	return nil
}

// debugf logs a message if debug mode is enabled.
func debugf(format string, args ...interface{}) {
	if cfg != nil && cfg.Debug {
		log.Printf(format, args...)
	}
}
