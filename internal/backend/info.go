package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lrstanley/go-ytdlp"

	"trackdl/internal/media"
)

// ErrNoInfo is returned when backend output holds no info JSON object.
var ErrNoInfo = errors.New("no track info in backend output")

// trackFromResult maps the last info object yt-dlp printed to a track.
func trackFromResult(res *ytdlp.Result) (*media.Track, error) {
	if res == nil {
		return nil, ErrNoInfo
	}
	infos, err := res.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInfo, err)
	}
	if len(infos) == 0 {
		infos = untypedInfo(res)
	}
	if len(infos) == 0 {
		return nil, ErrNoInfo
	}
	return trackFromInfo(infos[len(infos)-1])
}

// untypedInfo collects info objects without a "_type" key, which some
// extractors omit for plain videos.
func untypedInfo(res *ytdlp.Result) []*ytdlp.ExtractedInfo {
	var infos []*ytdlp.ExtractedInfo
	for _, l := range res.OutputLogs {
		if l.JSON == nil {
			continue
		}
		info, err := ytdlp.ParseExtractedInfo(l.JSON)
		if err != nil || info.Title == nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// trackFromInfo converts an extracted info dictionary. A playlist wrapper
// describes its first entry. Missing fields are left empty for the caller to
// default.
func trackFromInfo(info *ytdlp.ExtractedInfo) (*media.Track, error) {
	if info == nil {
		return nil, ErrNoInfo
	}
	if len(info.Entries) > 0 && str(info.Title) == "" {
		return trackFromInfo(info.Entries[0])
	}

	t := &media.Track{
		Title:     strings.TrimSpace(str(info.Title)),
		Artist:    firstNonEmpty(str(info.Uploader), str(info.Channel), str(info.Artist)),
		URL:       str(info.WebpageURL),
		Thumbnail: str(info.Thumbnail),
		Filepath:  firstNonEmpty(str(info.Filename), str(info.AltFilename)),
	}
	if info.Duration != nil && *info.Duration > 0 {
		t.Duration = int(*info.Duration)
	}
	return t, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
