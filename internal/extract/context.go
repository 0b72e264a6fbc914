package extract

import (
	"net/url"
	"regexp"
	"strings"

	"clipharvest/internal/media"
)

// ContextOptions controls the correlation pass against document markers.
type ContextOptions struct {
	Enabled    bool
	Threshold  int // Runs only when more assets than this survive grouping
	WindowSize int // Characters kept on each side of a post marker
	MaxMarkers int // Upper bound on post windows examined
}

// DefaultContextOptions returns the built-in contextual filter settings.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		Enabled:    true,
		Threshold:  3,
		WindowSize: 2000,
		MaxMarkers: 200,
	}
}

const mainContentMinLength = 300

var (
	documentIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"video_?[iI]d"\s*:\s*"?(\d{6,})`),
		regexp.MustCompile(`/videos/(\d{6,})`),
		regexp.MustCompile(`data-video-id\s*=\s*["'](\d{6,})`),
		regexp.MustCompile(`"attachments?"[^\]]{0,400}?"id"\s*:\s*"(\d{6,})"`),
	}

	postMarkers = []string{
		`"__typename":"Video"`,
		`"attachments"`,
		`data-video-id`,
		`/videos/`,
		`"is_video_post"`,
	}

	urlIDParams = []string{"video_id", "vid", "asset_id"}

	allDigits = regexp.MustCompile(`^\d{8,}$`)

	previewKeywords = []string{
		"preview", "thumbnail", "sprite", "snippet",
		"bytestart", "segment", "chunk", "/dash/",
	}
)

// contextFilter keeps assets that correlate with the document's own post
// markers and look like main content. When correlation finds nothing it
// relaxes to the main-content heuristic alone, and when that is empty too it
// returns the input unchanged.
func contextFilter(doc string, assets []media.Asset, tables *QualityTables, opts ContextOptions) []media.Asset {
	if len(assets) == 0 {
		return assets
	}

	docIDs := documentIDs(doc)
	windows := postWindows(doc, opts.WindowSize, opts.MaxMarkers)

	var strict, relaxed []media.Asset
	for _, a := range assets {
		if !isMainContent(a, tables) {
			continue
		}
		relaxed = append(relaxed, a)
		if correlated(a, docIDs, windows) {
			strict = append(strict, a)
		}
	}

	switch {
	case len(strict) > 0:
		return strict
	case len(relaxed) > 0:
		return relaxed
	default:
		return assets
	}
}

func correlated(a media.Asset, docIDs map[string]struct{}, windows []string) bool {
	if id := urlIdentifier(a.URL); id != "" {
		if _, ok := docIDs[id]; ok {
			return true
		}
	}
	hash := assetHash(a)
	if hash == "" {
		return false
	}
	for _, w := range windows {
		if strings.Contains(w, hash) {
			return true
		}
	}
	return false
}

// assetHash is the opaque-token prefix, when the base identity is one.
func assetHash(a media.Asset) string {
	if strings.HasPrefix(a.BaseIdentity, "id:") || strings.HasPrefix(a.BaseIdentity, "path:") ||
		strings.HasPrefix(a.BaseIdentity, "url:") {
		return ""
	}
	return a.BaseIdentity
}

// isMainContent distinguishes a standalone playable asset from a preview
// or streaming segment.
func isMainContent(a media.Asset, tables *QualityTables) bool {
	profile, ok := tables.FormatCodes[a.FormatCode]
	if !ok || !profile.HighConfidence {
		return false
	}
	if len(a.URL) <= mainContentMinLength {
		return false
	}
	if !tables.CDN.hasRequiredParams(a.URL) {
		return false
	}
	lower := strings.ToLower(a.URL)
	for _, kw := range previewKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func documentIDs(doc string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, re := range documentIDPatterns {
		for _, m := range re.FindAllStringSubmatch(doc, -1) {
			ids[m[1]] = struct{}{}
		}
	}
	return ids
}

// urlIdentifier returns the numeric asset identifier embedded in a URL.
func urlIdentifier(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range urlIDParams {
		if v := q.Get(p); v != "" && allDigits.MatchString(v) {
			return v
		}
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if allDigits.MatchString(seg) {
			return seg
		}
	}
	return ""
}

// postWindows returns the text surrounding each post/attachment marker.
func postWindows(doc string, size, limit int) []string {
	var windows []string
	for _, marker := range postMarkers {
		offset := 0
		for len(windows) < limit {
			i := strings.Index(doc[offset:], marker)
			if i < 0 {
				break
			}
			pos := offset + i
			from, to := pos-size, pos+len(marker)+size
			if from < 0 {
				from = 0
			}
			if to > len(doc) {
				to = len(doc)
			}
			windows = append(windows, doc[from:to])
			offset = pos + len(marker)
		}
	}
	return windows
}
