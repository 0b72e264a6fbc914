package extract

import (
	"net/url"
	"regexp"
	"strings"

	"clipharvest/internal/media"
)

// baseIdentityLength is how much of the opaque token identifies an asset
// across its different encodings.
const baseIdentityLength = 30

type qualityKeyword struct {
	label string
	re    *regexp.Regexp
}

// Checked in order; the first match wins.
var qualityKeywords = []qualityKeyword{
	{Quality4K, keywordPattern(`4k|2160p?`)},
	{Quality2K, keywordPattern(`2k|1440p?`)},
	{QualityHD, keywordPattern(`hd|720p?|1080p?`)},
	{QualitySD, keywordPattern(`sd|480p?`)},
	{QualityLow, keywordPattern(`360p?|240p?|low`)},
}

func keywordPattern(alternatives string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^a-z0-9])(?:` + alternatives + `)(?:[^a-z0-9]|$)`)
}

var numericPathID = regexp.MustCompile(`/(\d{6,})(?:[/_.]|$)`)

// Classifier derives quality, format and content type from a URL alone.
type Classifier struct {
	tables *QualityTables
}

// NewClassifier creates a classifier over the given tables.
func NewClassifier(tables *QualityTables) *Classifier {
	return &Classifier{tables: tables}
}

// Classify builds the asset description for a validated candidate.
func (c *Classifier) Classify(cand media.Candidate) media.Asset {
	code := formatCode(cand.URL)
	profile, known := c.tables.FormatCodes[code]

	ct := media.ContentType{HasVideo: true, HasAudio: true}
	resolution := "Auto"
	if known {
		ct.HasVideo = profile.HasVideo
		ct.HasAudio = profile.HasAudio
		resolution = profile.Resolution
	}
	ct.Description = describe(ct)

	quality := qualityLabel(cand.URL)
	if quality == QualityUnknown && known && profile.Quality != "" {
		quality = profile.Quality
	}

	score := c.tables.DefaultScore
	switch {
	case known:
		score = profile.Score
	case quality != QualityUnknown:
		if s, ok := c.tables.LabelScores[quality]; ok {
			score = s
		}
	}

	size, ok := c.tables.Sizes[quality]
	if !ok {
		size = c.tables.Sizes[QualityUnknown]
	}

	return media.Asset{
		URL:           cand.URL,
		Quality:       quality,
		Resolution:    resolution,
		Format:        c.format(cand.URL),
		FormatCode:    code,
		ContentType:   ct,
		EstimatedSize: size,
		QualityScore:  score,
		BaseIdentity:  c.baseIdentity(cand.URL),
		RuleID:        cand.RuleID,
	}
}

func qualityLabel(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, kw := range qualityKeywords {
		if kw.re.MatchString(lower) {
			return kw.label
		}
	}
	return QualityUnknown
}

func describe(ct media.ContentType) string {
	switch {
	case ct.HasVideo && ct.HasAudio:
		return descVideoAudio
	case ct.HasVideo:
		return descVideoOnly
	default:
		return descAudioOnly
	}
}

func (c *Classifier) format(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	ext := c.tables.CDN.extension(path)
	if ext == "" {
		return "mp4"
	}
	return strings.TrimPrefix(ext, ".")
}

// baseIdentity clusters encodings of one asset: the opaque token prefix,
// else a numeric path identifier, else the bare path.
func (c *Classifier) baseIdentity(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "url:" + rawURL
	}
	if ext := c.tables.CDN.extension(u.Path); ext != "" {
		token := filenameToken(u.Path, ext)
		if len(token) >= baseIdentityLength && opaqueTokenPattern.MatchString(token) {
			return token[:baseIdentityLength]
		}
	}
	if m := numericPathID.FindStringSubmatch(u.Path); m != nil {
		return "id:" + m[1]
	}
	return "path:" + u.Host + u.Path
}
