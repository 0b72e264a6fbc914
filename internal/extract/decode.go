package extract

import (
	"net/url"
	"regexp"
	"strings"
)

const minCandidateLength = 20

var (
	markupTagPattern = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9:_-]*(?:\s[^<>]*)?/?>`)

	// Markers of a sub-resource reference cut out of a streaming manifest.
	manifestMarkers = []string{
		"BaseURL", "SegmentBase", "SegmentURL", "Initialization", "Representation",
		"bytestart=", "byteend=", "&lt;", "&gt;",
	}

	manifestTags = map[string]bool{
		"baseurl": true, "segmenturl": true, "segmentbase": true, "initialization": true,
		"representation": true, "adaptationset": true, "mpd": true, "period": true,
	}
)

// decodeMatch turns a raw pattern match into a candidate URL.
// The boolean is false when the match must be discarded.
func decodeMatch(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\"'`")
	s = strings.ReplaceAll(s, `\/`, "/")

	if hasEncodedScheme(s) {
		decoded, err := url.PathUnescape(s)
		if err != nil {
			return "", false
		}
		s = decoded
	}

	if strings.IndexByte(s, '<') >= 0 {
		s = markupTagPattern.ReplaceAllString(s, "")
	}
	s = strings.TrimRight(s, `.,;:)]}\`)

	if len(s) < minCandidateLength {
		return "", false
	}
	if strings.ContainsAny(s, "<>") {
		return "", false
	}
	for _, marker := range manifestMarkers {
		if strings.Contains(s, marker) {
			return "", false
		}
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	return s, true
}

func hasEncodedScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http%3a") || strings.HasPrefix(lower, "https%3a")
}

// wrappedInManifestTag reports whether the match starting at start sits
// directly inside a manifest element, either as its text or as an attribute.
func wrappedInManifestTag(text string, start int) bool {
	from := start - 96
	if from < 0 {
		from = 0
	}
	prefix := strings.TrimRight(text[from:start], " \t\r\n\"'=")

	lt := strings.LastIndexByte(prefix, '<')
	if lt < 0 {
		return false
	}
	tag := prefix[lt+1:]
	if gt := strings.IndexByte(tag, '>'); gt >= 0 && gt != len(tag)-1 {
		// Something other than the tag sits between it and the match.
		return false
	}

	name := tag
	if i := strings.IndexAny(name, " \t\r\n>/"); i >= 0 {
		name = name[:i]
	}
	return manifestTags[strings.ToLower(name)]
}
