package httputil

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// DefaultDownloadName is used when no usable name can be derived from a URL.
const DefaultDownloadName = "video.mp4"

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

// HostAllowed reports whether rawURL is a valid HTTPS URL whose host
// carries one of the given tokens.
func HostAllowed(rawURL string, tokens []string) bool {
	if ValidateURL(rawURL) != nil {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, token := range tokens {
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		if host == token || strings.HasSuffix(host, "."+token) {
			return true
		}
	}
	return false
}

// SanitizeFilename removes path traversal and dangerous characters from a filename.
// Returns just the base name, stripped of any directory components.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)

	replacer := strings.NewReplacer(
		"..", "_",
		"/", "_",
		"\\", "_",
		"\x00", "",
		"\r", "",
		"\n", "",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		";", "_",
	)
	name = replacer.Replace(name)

	if name == "" || name == "." || name == ".." {
		return "untitled"
	}

	return name
}

// DownloadFilename derives a safe attachment name from an asset URL's path.
func DownloadFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || strings.HasSuffix(u.Path, "/") {
		return DefaultDownloadName
	}
	name := SanitizeFilename(path.Base(u.Path))
	if name == "untitled" {
		return DefaultDownloadName
	}
	if path.Ext(name) == "" {
		name += ".mp4"
	}
	return name
}
