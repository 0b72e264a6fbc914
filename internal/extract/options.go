package extract

import (
	"go.uber.org/zap"
)

// Defaults for the ranking stages.
const (
	DefaultResultCap          = 15
	DefaultGroupThreshold     = 2
	DefaultDiversityThreshold = 40
	DefaultPerFormatLimit     = 3
)

type options struct {
	rules              []Rule
	fallback           []Rule
	tables             *QualityTables
	resultCap          int
	groupThreshold     int
	context            ContextOptions
	diversityThreshold int
	perFormatLimit     int
	minURLLength       int
	logger             *zap.Logger
}

func defaultOptions() options {
	return options{
		rules:              DefaultRules(),
		fallback:           DefaultFallbackRules(),
		tables:             DefaultTables(),
		resultCap:          DefaultResultCap,
		groupThreshold:     DefaultGroupThreshold,
		context:            DefaultContextOptions(),
		diversityThreshold: DefaultDiversityThreshold,
		perFormatLimit:     DefaultPerFormatLimit,
		minURLLength:       DefaultMinURLLength,
		logger:             zap.NewNop(),
	}
}

// Option configures an Extractor.
type Option func(*options)

// WithRules replaces the primary rule table.
func WithRules(rules []Rule) Option {
	return func(o *options) { o.rules = rules }
}

// WithFallbackRules replaces the fallback rule table. An empty table
// disables the fallback scan.
func WithFallbackRules(rules []Rule) Option {
	return func(o *options) { o.fallback = rules }
}

// WithTables replaces the CDN fingerprint and classification tables.
func WithTables(t *QualityTables) Option {
	return func(o *options) { o.tables = t }
}

// WithResultCap sets the maximum number of assets returned.
func WithResultCap(n int) Option {
	return func(o *options) { o.resultCap = n }
}

// WithGroupThreshold sets the asset count from which cluster dedup runs.
func WithGroupThreshold(n int) Option {
	return func(o *options) { o.groupThreshold = n }
}

// WithContextFilter configures the contextual correlation pass.
func WithContextFilter(c ContextOptions) Option {
	return func(o *options) { o.context = c }
}

// WithDiversity sets when and how strongly format diversity is enforced.
func WithDiversity(threshold, perFormat int) Option {
	return func(o *options) {
		o.diversityThreshold = threshold
		o.perFormatLimit = perFormat
	}
}

// WithMinURLLength overrides the validator's length floor.
func WithMinURLLength(n int) Option {
	return func(o *options) { o.minURLLength = n }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
