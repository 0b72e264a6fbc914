// Package media defines shared types for the clipharvest application.
package media

// Candidate is a raw URL produced by the scanner, before validation.
type Candidate struct {
	URL    string // Decoded absolute URL
	RuleID string // Rule (or walker) that produced it, e.g. "json-url", "ld-json"
	Bypass bool   // Accepted on the producing rule's signature, skipping the validator
}

// ContentType describes which streams an asset carries.
type ContentType struct {
	HasVideo    bool   `json:"hasVideo" yaml:"has_video"`
	HasAudio    bool   `json:"hasAudio" yaml:"has_audio"`
	Description string `json:"description" yaml:"description"`
}

// Complete reports whether the asset carries both video and audio.
func (c ContentType) Complete() bool {
	return c.HasVideo && c.HasAudio
}

// Asset is a validated and classified media URL.
type Asset struct {
	URL           string      `json:"url" yaml:"url"`
	Quality       string      `json:"quality" yaml:"quality"`       // e.g. "HD", "SD", "Unknown Quality"
	Resolution    string      `json:"resolution" yaml:"resolution"` // e.g. "1080p", "Auto"
	Format        string      `json:"format" yaml:"format"`         // mp4, m4v, mov
	FormatCode    string      `json:"formatCode,omitempty" yaml:"format_code,omitempty"`
	ContentType   ContentType `json:"contentType" yaml:"content_type"`
	EstimatedSize string      `json:"estimatedSize" yaml:"estimated_size"` // Display only, never measured
	QualityScore  int         `json:"qualityScore" yaml:"quality_score"`
	BaseIdentity  string      `json:"baseIdentity" yaml:"base_identity"`
	RuleID        string      `json:"source" yaml:"source"`
}

// ResultSet is the ordered output of one extraction call.
type ResultSet struct {
	Assets     []Asset
	TotalFound int // Validated, URL-unique assets before grouping, filtering and capping
}

// Len returns the number of assets in the set.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Assets)
}

// Filtered returns how many validated assets were dropped by grouping, filtering or capping.
func (r *ResultSet) Filtered() int {
	if r == nil {
		return 0
	}
	return r.TotalFound - len(r.Assets)
}
