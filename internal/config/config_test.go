package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AudioFormat != "mp3" {
		t.Errorf("default audio format = %q, want mp3", cfg.AudioFormat)
	}
	if cfg.AudioQuality != "192K" {
		t.Errorf("default audio quality = %q, want 192K", cfg.AudioQuality)
	}
	if cfg.SoundCloud.MetadataMode != "separate" {
		t.Errorf("soundcloud metadata mode = %q, want separate", cfg.SoundCloud.MetadataMode)
	}
	if cfg.YouTube.MetadataMode != "combined" {
		t.Errorf("youtube metadata mode = %q, want combined", cfg.YouTube.MetadataMode)
	}
	if !cfg.SoundCloud.AutoInstall || cfg.YouTube.AutoInstall {
		t.Error("only soundcloud should auto-install by default")
	}
	if !cfg.Library {
		t.Error("default library should be true")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"invalid format", func(c *Config) { c.AudioFormat = "wma" }, true},
		{"invalid quality", func(c *Config) { c.AudioQuality = "loud" }, true},
		{"quality out of range", func(c *Config) { c.AudioQuality = "11" }, true},
		{"invalid player", func(c *Config) { c.Player = "notepad" }, true},
		{"empty template", func(c *Config) { c.OutputTemplate = "" }, true},
		{"template with separator", func(c *Config) { c.OutputTemplate = "../%(title)s.%(ext)s" }, true},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -1 }, true},
		{"invalid metadata mode", func(c *Config) { c.SoundCloud.MetadataMode = "lazy" }, true},
		{"invalid sanitize", func(c *Config) { c.YouTube.Sanitize = "escape" }, true},
		{"valid vbr quality", func(c *Config) { c.AudioQuality = "0" }, false},
		{"valid opus", func(c *Config) { c.AudioFormat = "opus" }, false},
		{"valid vlc", func(c *Config) { c.Player = "vlc" }, false},
		{"valid strict", func(c *Config) { c.YouTube.MetadataMode = "strict" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	content := `
audio_format = "m4a"
audio_quality = "0"
player = "vlc"
library = false
extra_paths = ["/opt/tools/yt-dlp"]

[youtube]
metadata_mode = "separate"
auto_install = true
`
	appDir := filepath.Join(tmpDir, "trackdl")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.AudioFormat != "m4a" {
		t.Errorf("audio format = %q, want m4a", cfg.AudioFormat)
	}
	if cfg.Player != "vlc" {
		t.Errorf("player = %q, want vlc", cfg.Player)
	}
	if cfg.Library {
		t.Error("library should be false")
	}
	if len(cfg.ExtraPaths) != 1 || cfg.ExtraPaths[0] != "/opt/tools/yt-dlp" {
		t.Errorf("extra paths = %v", cfg.ExtraPaths)
	}
	if cfg.YouTube.MetadataMode != "separate" || !cfg.YouTube.AutoInstall {
		t.Errorf("youtube variant not overridden: %+v", cfg.YouTube)
	}
	// Keys absent from the file keep their defaults.
	if cfg.YouTube.Sanitize != "strip" {
		t.Errorf("youtube sanitize = %q, want strip", cfg.YouTube.Sanitize)
	}
	if cfg.SoundCloud.MetadataMode != "separate" || !cfg.SoundCloud.ValidateHost {
		t.Errorf("soundcloud variant changed: %+v", cfg.SoundCloud)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	appDir := filepath.Join(tmpDir, "trackdl")
	os.MkdirAll(appDir, 0755)
	os.WriteFile(filepath.Join(appDir, "config.toml"), []byte(`audio_format = "wma"`), 0644)

	if _, err := Load(); err == nil {
		t.Error("Load() should reject an unsupported audio format")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() should not error on missing file: %v", err)
	}
	if cfg.AudioFormat != "mp3" {
		t.Errorf("missing file should return defaults, got audio format = %q", cfg.AudioFormat)
	}
}

func TestExpandPath(t *testing.T) {
	dir, err := ExpandPath("/tmp/test-downloads")
	if err != nil {
		t.Fatalf("ExpandPath() error: %v", err)
	}
	if dir != "/tmp/test-downloads" {
		t.Errorf("got %q, want /tmp/test-downloads", dir)
	}

	home := t.TempDir()
	t.Setenv("HOME", home)
	dir, err = ExpandPath("~/Music")
	if err != nil {
		t.Fatalf("ExpandPath() error: %v", err)
	}
	if dir != filepath.Join(home, "Music") {
		t.Errorf("got %q, want %q", dir, filepath.Join(home, "Music"))
	}
}

func TestLibraryPath(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataDir)

	path, err := LibraryPath()
	if err != nil {
		t.Fatalf("LibraryPath() error: %v", err)
	}
	if path != filepath.Join(dataDir, "trackdl", "library.db") {
		t.Errorf("got %q", path)
	}
}
