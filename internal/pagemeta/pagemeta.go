// Package pagemeta reads track metadata straight from a track's web page.
// It is the fallback used when the backend's dry run fails: an oEmbed lookup
// first, then Open Graph / schema.org tags parsed with goquery.
package pagemeta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trackdl/internal/httputil"
	"trackdl/internal/media"
)

// Known oEmbed endpoints.
const (
	SoundCloudOEmbed = "https://soundcloud.com/oembed"
	YouTubeOEmbed    = "https://www.youtube.com/oembed"
)

// Fetcher looks up metadata for a page URL.
type Fetcher struct {
	client *http.Client
	oembed string
}

// New creates a Fetcher. oembedEndpoint may be empty to skip the oEmbed step.
func New(client *http.Client, oembedEndpoint string) *Fetcher {
	if client == nil {
		client = httputil.NewClient()
	}
	return &Fetcher{client: client, oembed: oembedEndpoint}
}

// Fetch returns whatever metadata the page exposes. Fields it cannot find are
// left empty.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*media.Track, error) {
	var track *media.Track
	var errs []error

	if f.oembed != "" {
		t, err := f.fetchOEmbed(ctx, pageURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("oembed: %w", err))
		} else {
			track = t
		}
	}

	doc, err := f.fetchDocument(ctx, pageURL)
	if err != nil {
		errs = append(errs, fmt.Errorf("page: %w", err))
	} else {
		track = merge(track, parseDocument(doc))
	}

	if track == nil || (track.Title == "" && track.Artist == "") {
		if len(errs) == 0 {
			return nil, fmt.Errorf("no metadata found on %s", pageURL)
		}
		return nil, errors.Join(errs...)
	}
	return track, nil
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func (f *Fetcher) fetchOEmbed(ctx context.Context, pageURL string) (*media.Track, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("url", pageURL)

	body, err := httputil.GetJSON(ctx, f.client, f.oembed+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding oembed response: %w", err)
	}

	title := strings.TrimSpace(resp.Title)
	artist := strings.TrimSpace(resp.AuthorName)
	// SoundCloud titles read "<track> by <artist>".
	if artist != "" {
		title = strings.TrimSuffix(title, " by "+artist)
	}
	return &media.Track{Title: title, Artist: artist, URL: pageURL}, nil
}

// fetchDocument fetches a URL and parses it into a goquery Document.
func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := httputil.Get(ctx, f.client, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	return doc, nil
}

// parseDocument extracts metadata from Open Graph and schema.org markup.
// Uses DOM parsing, never regular expressions over raw HTML.
func parseDocument(doc *goquery.Document) *media.Track {
	t := &media.Track{}

	t.Title = metaContent(doc, `meta[property="og:title"]`, `meta[name="twitter:title"]`)
	if t.Title == "" {
		t.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	t.Artist = metaContent(doc,
		`[itemprop="author"] [itemprop="name"]`,
		`meta[name="author"]`,
		`meta[name="twitter:audio:artist_name"]`,
	)
	if t.Artist == "" {
		// SoundCloud links the uploader profile rather than naming it.
		if u := metaContent(doc, `meta[property="soundcloud:user"]`); u != "" {
			t.Artist = path.Base(strings.TrimRight(u, "/"))
		}
	}

	if d := metaContent(doc, `meta[itemprop="duration"]`); d != "" {
		t.Duration = parseISODuration(d)
	}

	t.URL = metaContent(doc, `meta[property="og:url"]`, `link[rel="canonical"]`)
	t.Thumbnail = metaContent(doc, `meta[property="og:image"]`)

	return t
}

// metaContent returns the first non-empty content (or href) among the selectors.
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		s := doc.Find(sel).First()
		if v, ok := s.Attr("content"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if v, ok := s.Attr("href"); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// merge fills empty fields of base from extra.
func merge(base, extra *media.Track) *media.Track {
	if base == nil {
		return extra
	}
	if base.Title == "" {
		base.Title = extra.Title
	}
	if base.Artist == "" {
		base.Artist = extra.Artist
	}
	if base.Duration == 0 {
		base.Duration = extra.Duration
	}
	if extra.URL != "" {
		base.URL = extra.URL
	}
	if base.Thumbnail == "" {
		base.Thumbnail = extra.Thumbnail
	}
	return base
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseISODuration converts an ISO-8601 duration such as PT00H04M13S into
// whole seconds. Unparseable input yields 0.
func parseISODuration(s string) int {
	m := isoDuration.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(s)))
	if m == nil {
		return 0
	}
	days, _ := strconv.Atoi(m[1])
	hours, _ := strconv.Atoi(m[2])
	minutes, _ := strconv.Atoi(m[3])
	seconds, _ := strconv.ParseFloat(m[4], 64)
	return days*86400 + hours*3600 + minutes*60 + int(seconds)
}
