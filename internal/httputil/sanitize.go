package httputil

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// SanitizeMode selects how characters that are invalid in file names are handled.
type SanitizeMode string

const (
	// SanitizeReplace swaps invalid characters for underscores.
	SanitizeReplace SanitizeMode = "replace"
	// SanitizeStrip drops invalid characters and collapses whitespace.
	SanitizeStrip SanitizeMode = "strip"
)

var (
	// invalidNameChars matches characters rejected by at least one common filesystem.
	invalidNameChars = regexp.MustCompile(`[\\/*?:"<>|\x00]`)

	spaceRun = regexp.MustCompile(`\s+`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// ValidateHost checks that rawURL is an http(s) URL whose host is one of the
// given domains or a subdomain of one.
func ValidateHost(rawURL string, domains []string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("URL has no host")
	}
	for _, d := range domains {
		d = strings.ToLower(strings.TrimPrefix(d, "."))
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return fmt.Errorf("host %q is not one of %s", host, strings.Join(domains, ", "))
}

// CleanComponent makes a metadata value safe to use inside a file name.
func CleanComponent(s string, mode SanitizeMode) string {
	if mode == SanitizeStrip {
		s = invalidNameChars.ReplaceAllString(s, "")
		return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
	}
	return invalidNameChars.ReplaceAllString(s, "_")
}

// SanitizeFilename removes path traversal and dangerous characters from a filename.
// Returns just the base name, stripped of any directory components.
func SanitizeFilename(name string) string {
	// Take only the base name to strip directory components
	name = filepath.Base(name)
	name = invalidNameChars.ReplaceAllStringFunc(name, func(c string) string {
		if c == "\x00" {
			return ""
		}
		return "_"
	})

	if name == "" || name == "." || name == ".." {
		return "untitled"
	}

	return name
}

// SafeDownloadPath resolves and validates a download path ensuring it stays within the target directory.
func SafeDownloadPath(dir, filename string) (string, error) {
	sanitized := SanitizeFilename(filename)

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	resolved, err := filepath.Abs(filepath.Join(absDir, sanitized))
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	if !strings.HasPrefix(resolved, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes %q", resolved, absDir)
	}

	return resolved, nil
}
