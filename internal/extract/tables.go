package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// FormatProfile describes what a CDN format code is known to carry.
type FormatProfile struct {
	Resolution     string
	HasVideo       bool
	HasAudio       bool
	Quality        string // Quality band used when the URL carries no quality keyword
	Score          int
	HighConfidence bool // Counts toward the main-content heuristic
}

// Fingerprint identifies URLs served by a known media CDN.
type Fingerprint struct {
	HostTokens     []string   // Substrings of the host, e.g. "fbcdn.net"
	PathSegments   []string   // Substrings of the path, e.g. "/o1/v/"
	RequiredParams [][]string // Each inner slice is satisfied by any one of its markers
	Extensions     []string   // Playable extensions including the dot
	Exclusions     []string   // Markers of manifests and partial segments
	MinTokenLength int        // Minimum length of the opaque filename token
}

// QualityTables holds every lookup the validator and classifier rely on.
type QualityTables struct {
	CDN          Fingerprint
	FormatCodes  map[string]FormatProfile
	DefaultScore int
	LabelScores  map[string]int    // Score for URLs without a known format code
	Sizes        map[string]string // Display-only size estimate by quality label
}

// Quality labels.
const (
	Quality4K      = "4K"
	Quality2K      = "2K"
	QualityHD      = "HD"
	QualitySD      = "SD"
	QualityLow     = "Low"
	QualityUnknown = "Unknown Quality"
)

// Content type descriptions.
const (
	descVideoAudio = "Video with audio"
	descVideoOnly  = "Video only (no audio)"
	descAudioOnly  = "Audio only"
)

// DefaultTables returns the built-in CDN fingerprint and classification tables.
//
// m69 is a progressive rendition whose audio track is not signalled anywhere in the URL;
// it is classified as carrying audio so classification stays reproducible.
func DefaultTables() *QualityTables {
	return &QualityTables{
		CDN: Fingerprint{
			HostTokens:   []string{"fbcdn.net", "cdninstagram.com"},
			PathSegments: []string{"/o1/v/", "/v/t42.", "/v/t39.", "/v/t2/"},
			RequiredParams: [][]string{
				{"_nc_cat="},
				{"_nc_ht=", "_nc_ohc="},
				{"oh="},
			},
			Extensions: []string{".mp4", ".m4v", ".mov"},
			Exclusions: []string{
				"bytestart", "byteend", "fragment", "chunk",
				"_init.", "init.mp4", "/init/",
				".m3u8", ".mpd", "/dash/", "dash_", "/hls/",
				"manifest", "segment",
			},
			MinTokenLength: 40,
		},
		FormatCodes: map[string]FormatProfile{
			"m412": {Resolution: "1080p", HasVideo: true, HasAudio: true, Quality: QualityHD, Score: 100, HighConfidence: true},
			"m367": {Resolution: "720p", HasVideo: true, HasAudio: true, Quality: QualityHD, Score: 90, HighConfidence: true},
			"m366": {Resolution: "720p", HasVideo: true, HasAudio: true, Quality: QualityHD, Score: 85, HighConfidence: true},
			"m69":  {Resolution: "Auto", HasVideo: true, HasAudio: true, Quality: QualityHD, Score: 75, HighConfidence: true},
			"m78":  {Resolution: "480p", HasVideo: true, HasAudio: true, Quality: QualitySD, Score: 60},
			"m86":  {Resolution: "360p", HasVideo: true, HasAudio: true, Quality: QualityLow, Score: 45},
			"m265": {Resolution: "360p", HasVideo: true, HasAudio: false, Quality: QualityLow, Score: 25},
			"m264": {Resolution: "240p", HasVideo: true, HasAudio: false, Quality: QualityLow, Score: 20},
			"m524": {Resolution: "Audio", HasVideo: false, HasAudio: true, Quality: QualityLow, Score: 20},
		},
		DefaultScore: 40,
		LabelScores: map[string]int{
			Quality4K:  90,
			Quality2K:  80,
			QualityHD:  70,
			QualitySD:  50,
			QualityLow: 30,
		},
		Sizes: map[string]string{
			Quality4K:      "~800 MB",
			Quality2K:      "~400 MB",
			QualityHD:      "~150 MB",
			QualitySD:      "~60 MB",
			QualityLow:     "~25 MB",
			QualityUnknown: "Unknown",
		},
	}
}

// Validate checks the tables are usable.
func (t *QualityTables) Validate() error {
	if t == nil {
		return fmt.Errorf("quality tables are nil")
	}
	if len(t.CDN.HostTokens) == 0 {
		return fmt.Errorf("CDN fingerprint needs at least one host token")
	}
	if len(t.CDN.Extensions) == 0 {
		return fmt.Errorf("CDN fingerprint needs at least one extension")
	}
	for _, ext := range t.CDN.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	if t.CDN.MinTokenLength <= 0 {
		return fmt.Errorf("minimum token length must be positive, got %d", t.CDN.MinTokenLength)
	}
	for code := range t.FormatCodes {
		if !formatCodePattern.MatchString("/" + code + "/") {
			return fmt.Errorf("format code %q does not look like a path code", code)
		}
	}
	return nil
}

// formatCodePattern finds CDN encoding-profile path segments such as /m412/.
var formatCodePattern = regexp.MustCompile(`/(m\d{2,3})/`)

// formatCode returns the first format code path segment of rawURL, or "".
func formatCode(rawURL string) string {
	path := rawURL
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	m := formatCodePattern.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}

// hasRequiredParams reports whether every required parameter group is present.
func (f *Fingerprint) hasRequiredParams(rawURL string) bool {
	for _, group := range f.RequiredParams {
		found := false
		for _, marker := range group {
			if strings.Contains(rawURL, marker) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// excluded reports whether rawURL carries a manifest or segment marker.
func (f *Fingerprint) excluded(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, marker := range f.Exclusions {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// hostMatches reports whether host carries one of the CDN host tokens.
func (f *Fingerprint) hostMatches(host string) bool {
	host = strings.ToLower(host)
	for _, token := range f.HostTokens {
		if strings.Contains(host, token) {
			return true
		}
	}
	return false
}

// extension returns the first playable extension present in path, or "".
func (f *Fingerprint) extension(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range f.Extensions {
		if strings.Contains(lower, ext) {
			return ext
		}
	}
	return ""
}
