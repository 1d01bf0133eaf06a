// Package config handles TOML-based configuration loading and validation.
// The file is parsed as data only; nothing in it is ever executed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

const appName = "trackdl"

// Variant holds the per-platform switches of one download command.
type Variant struct {
	MetadataMode string `toml:"metadata_mode"`
	ValidateHost bool   `toml:"validate_host"`
	AutoInstall  bool   `toml:"auto_install"`
	Traceback    bool   `toml:"traceback"`
	Sanitize     string `toml:"sanitize"`
}

// Config holds all application configuration.
type Config struct {
	AudioFormat    string   `toml:"audio_format"`
	AudioQuality   string   `toml:"audio_quality"`
	OutputTemplate string   `toml:"output_template"`
	FFmpegLocation string   `toml:"ffmpeg_location"`
	EmbedMetadata  bool     `toml:"embed_metadata"`
	EmbedThumbnail bool     `toml:"embed_thumbnail"`
	ExtraPaths     []string `toml:"extra_paths"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	PageFallback   bool     `toml:"page_fallback"`
	Library        bool     `toml:"library"`
	Player         string   `toml:"player"`
	Progress       bool     `toml:"progress"`
	Debug          bool     `toml:"debug"`

	SoundCloud Variant `toml:"soundcloud"`
	YouTube    Variant `toml:"youtube"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		AudioFormat:    "mp3",
		AudioQuality:   "192K",
		OutputTemplate: "%(title)s.%(ext)s",
		Library:        true,
		Player:         "mpv",
		Progress:       true,
		SoundCloud: Variant{
			MetadataMode: "separate",
			ValidateHost: true,
			AutoInstall:  true,
			Traceback:    true,
			Sanitize:     "replace",
		},
		YouTube: Variant{
			MetadataMode: "combined",
			ValidateHost: false,
			AutoInstall:  false,
			Traceback:    false,
			Sanitize:     "strip",
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// audioQualityPattern accepts a VBR level (0-10) or a bitrate such as 192K.
var audioQualityPattern = regexp.MustCompile(`^(10|[0-9]|[0-9]+[kK])$`)

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"mp3": true, "m4a": true, "opus": true, "flac": true,
		"wav": true, "aac": true, "vorbis": true,
	}
	if !validFormats[strings.ToLower(c.AudioFormat)] {
		return fmt.Errorf("unsupported audio format %q (valid: mp3, m4a, opus, flac, wav, aac, vorbis)", c.AudioFormat)
	}

	if !audioQualityPattern.MatchString(c.AudioQuality) {
		return fmt.Errorf("unsupported audio quality %q (valid: 0-10 or a bitrate like 192K)", c.AudioQuality)
	}

	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if c.OutputTemplate == "" {
		return fmt.Errorf("output template cannot be empty")
	}
	if strings.ContainsAny(c.OutputTemplate, `/\`) {
		return fmt.Errorf("output template %q must not contain path separators", c.OutputTemplate)
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds cannot be negative")
	}

	if err := c.SoundCloud.validate(); err != nil {
		return fmt.Errorf("[soundcloud]: %w", err)
	}
	if err := c.YouTube.validate(); err != nil {
		return fmt.Errorf("[youtube]: %w", err)
	}

	return nil
}

func (v Variant) validate() error {
	switch v.MetadataMode {
	case "separate", "strict", "combined":
	default:
		return fmt.Errorf("unsupported metadata_mode %q (valid: separate, strict, combined)", v.MetadataMode)
	}
	switch v.Sanitize {
	case "replace", "strip":
	default:
		return fmt.Errorf("unsupported sanitize %q (valid: replace, strip)", v.Sanitize)
	}
	return nil
}

// ExpandPath resolves a leading ~ in a path against the home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}

// LibraryPath returns the path to the download library database.
func LibraryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, appName, "library.db"), nil
}
