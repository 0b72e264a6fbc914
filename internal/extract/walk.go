package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"clipharvest/internal/media"
)

// maxJSONDepth bounds recursion into embedded linked-data graphs.
const maxJSONDepth = 64

// stringConcat matches the join between two adjacent JavaScript string
// literals, as in "https://host/a/" + "b.mp4".
var stringConcat = regexp.MustCompile(`"\s*\+\s*"|'\s*\+\s*'`)

var mediaElementAttrs = []struct {
	selector string
	attr     string
}{
	{"video[src]", "src"},
	{"video source[src]", "src"},
	{"audio[src]", "src"},
	{"source[src]", "src"},
	{"[data-video-src]", "data-video-src"},
}

// walkDocument runs the structured-data walkers over the parsed document:
// linked-data blocks, media elements, and inline scripts mentioning video.
func (e *Extractor) walkDocument(doc *goquery.Document, seen seenSet) ([]media.Candidate, seenSet) {
	var out []media.Candidate
	var found []media.Candidate

	found, seen = e.walkLinkedData(doc, seen)
	out = append(out, found...)

	found, seen = walkMediaElements(doc, seen)
	out = append(out, found...)

	found, seen = e.walkScripts(doc, seen)
	out = append(out, found...)

	return out, seen
}

// walkLinkedData collects string values of ld+json blocks that independently
// pass the validator. Malformed blocks are skipped.
func (e *Extractor) walkLinkedData(doc *goquery.Document, seen seenSet) ([]media.Candidate, seenSet) {
	var out []media.Candidate

	doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			e.logger.Debug("skipping malformed ld+json block", zap.Int("index", i), zap.Error(err))
			return
		}
		walkJSON(data, 0, func(value string) {
			decoded, ok := decodeMatch(Normalize(value))
			if !ok || !e.validator.Validate(decoded) {
				return
			}
			if seen.add(decoded) {
				out = append(out, media.Candidate{URL: decoded, RuleID: "ld-json"})
			}
		})
	})

	return out, seen
}

func walkJSON(v interface{}, depth int, visit func(string)) {
	if depth > maxJSONDepth {
		return
	}
	switch val := v.(type) {
	case string:
		visit(val)
	case []interface{}:
		for _, item := range val {
			walkJSON(item, depth+1, visit)
		}
	case map[string]interface{}:
		for _, item := range val {
			walkJSON(item, depth+1, visit)
		}
	}
}

// walkMediaElements reads direct URL attributes of video/audio/source elements.
func walkMediaElements(doc *goquery.Document, seen seenSet) ([]media.Candidate, seenSet) {
	var out []media.Candidate

	for _, el := range mediaElementAttrs {
		doc.Find(el.selector).Each(func(_ int, s *goquery.Selection) {
			raw, exists := s.Attr(el.attr)
			if !exists {
				return
			}
			decoded, ok := decodeMatch(Normalize(raw))
			if !ok {
				return
			}
			if seen.add(decoded) {
				out = append(out, media.Candidate{URL: decoded, RuleID: "media-element"})
			}
		})
	}

	return out, seen
}

// walkScripts re-runs the primary rule table scoped to inline scripts that
// mention video, with adjacent string literals joined first. URLs built by
// concatenation are only visible to this pass.
func (e *Extractor) walkScripts(doc *goquery.Document, seen seenSet) ([]media.Candidate, seenSet) {
	var out []media.Candidate

	doc.Find("script:not([src])").Each(func(_ int, s *goquery.Selection) {
		if typ, _ := s.Attr("type"); typ == "application/ld+json" {
			return
		}
		body := s.Text()
		if !strings.Contains(strings.ToLower(body), "video") {
			return
		}
		var found []media.Candidate
		body = stringConcat.ReplaceAllString(body, "")
		found, seen = scanRules(Normalize(body), e.rules, &e.tables.CDN, "script-block/", seen)
		out = append(out, found...)
	})

	return out, seen
}
