package download

import (
	"strings"

	"trackdl/internal/config"
	"trackdl/internal/httputil"
	"trackdl/internal/pagemeta"
)

// MetadataMode selects how track metadata is obtained.
type MetadataMode string

const (
	// ModeSeparate runs a dry run first and falls back to placeholders.
	ModeSeparate MetadataMode = "separate"
	// ModeStrict runs a dry run first and fails when it does.
	ModeStrict MetadataMode = "strict"
	// ModeCombined reads metadata from the download call itself.
	ModeCombined MetadataMode = "combined"
)

// Profile holds the behavior switches of one platform variant.
type Profile struct {
	Name                 string   // Command name, e.g. "soundcloud"
	Label                string   // Display name used in messages
	Domains              []string // Accepted hosts, subdomains included
	ValidateHost         bool
	MetadataMode         MetadataMode
	Sanitize             httputil.SanitizeMode
	IncludeTrace         bool
	ExitOnMissingBackend bool
	AutoInstall          bool
	OEmbed               string // oEmbed endpoint for the page fallback

	AudioFormat    string
	AudioQuality   string
	Template       string
	EmbedMetadata  bool
	EmbedThumbnail bool
	FFmpegLocation string
}

// SoundCloud returns the music platform profile.
func SoundCloud() Profile {
	return Profile{
		Name:         "soundcloud",
		Label:        "SoundCloud",
		Domains:      []string{"soundcloud.com"},
		ValidateHost: true,
		MetadataMode: ModeSeparate,
		Sanitize:     httputil.SanitizeReplace,
		IncludeTrace: true,
		AutoInstall:  true,
		OEmbed:       pagemeta.SoundCloudOEmbed,
		AudioFormat:  "mp3",
		AudioQuality: "192K",
		Template:     "%(title)s.%(ext)s",
	}
}

// YouTube returns the video platform profile.
func YouTube() Profile {
	return Profile{
		Name:                 "youtube",
		Label:                "YouTube",
		Domains:              []string{"youtube.com", "youtu.be", "youtube-nocookie.com"},
		MetadataMode:         ModeCombined,
		Sanitize:             httputil.SanitizeStrip,
		ExitOnMissingBackend: true,
		OEmbed:               pagemeta.YouTubeOEmbed,
		AudioFormat:          "mp3",
		AudioQuality:         "192K",
		Template:             "%(title)s.%(ext)s",
	}
}

// WithConfig overlays the shared settings and the variant table of cfg.
func (p Profile) WithConfig(cfg *config.Config, v config.Variant) Profile {
	p.ValidateHost = v.ValidateHost
	p.MetadataMode = MetadataMode(v.MetadataMode)
	p.Sanitize = httputil.SanitizeMode(v.Sanitize)
	p.IncludeTrace = v.Traceback
	p.AutoInstall = v.AutoInstall

	p.AudioFormat = strings.ToLower(cfg.AudioFormat)
	p.AudioQuality = cfg.AudioQuality
	p.Template = cfg.OutputTemplate
	p.EmbedMetadata = cfg.EmbedMetadata
	p.EmbedThumbnail = cfg.EmbedThumbnail
	p.FFmpegLocation = cfg.FFmpegLocation
	return p
}

// Extension returns the file extension yt-dlp writes for the audio format.
func (p Profile) Extension() string {
	switch p.AudioFormat {
	case "vorbis":
		return ".ogg"
	case "aac":
		return ".m4a"
	case "":
		return ".mp3"
	default:
		return "." + p.AudioFormat
	}
}
