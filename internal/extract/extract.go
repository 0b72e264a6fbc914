// Package extract finds playable media asset URLs in an HTML or text blob
// and reduces them to a small ranked list. It performs no network I/O.
package extract

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"clipharvest/internal/media"
)

var (
	// ErrInvalidOptions is returned by New for unusable configuration.
	ErrInvalidOptions = errors.New("invalid extractor options")

	// ErrExtractionFailed wraps an unexpected failure inside the pipeline.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Extractor runs the extraction pipeline. It holds only immutable compiled
// configuration and is safe for concurrent use.
type Extractor struct {
	rules      []compiledRule
	fallback   []compiledRule
	bypass     []*compiledRule
	tables     *QualityTables
	validator  *Validator
	classifier *Classifier

	resultCap          int
	groupThreshold     int
	context            ContextOptions
	diversityThreshold int
	perFormatLimit     int

	logger *zap.Logger
}

// New compiles the configured rule tables and returns an Extractor.
func New(opts ...Option) (*Extractor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.rules) == 0 {
		return nil, fmt.Errorf("%w: rule table is empty", ErrInvalidOptions)
	}
	if o.resultCap <= 0 {
		return nil, fmt.Errorf("%w: result cap must be positive, got %d", ErrInvalidOptions, o.resultCap)
	}
	if o.minURLLength <= 0 {
		return nil, fmt.Errorf("%w: minimum URL length must be positive, got %d", ErrInvalidOptions, o.minURLLength)
	}
	if err := o.tables.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	rules, err := compileRules(o.rules)
	if err != nil {
		return nil, fmt.Errorf("%w: primary rules: %v", ErrInvalidOptions, err)
	}
	fallback, err := compileRules(o.fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: fallback rules: %v", ErrInvalidOptions, err)
	}

	var bypass []*compiledRule
	for _, table := range [][]compiledRule{rules, fallback} {
		for i := range table {
			if table[i].BypassValidator {
				bypass = append(bypass, &table[i])
			}
		}
	}

	return &Extractor{
		rules:              rules,
		fallback:           fallback,
		bypass:             bypass,
		tables:             o.tables,
		validator:          NewValidator(&o.tables.CDN, o.minURLLength),
		classifier:         NewClassifier(o.tables),
		resultCap:          o.resultCap,
		groupThreshold:     o.groupThreshold,
		context:            o.context,
		diversityThreshold: o.diversityThreshold,
		perFormatLimit:     o.perFormatLimit,
		logger:             o.logger,
	}, nil
}

// Extract runs the full pipeline over doc. An empty result is not an error.
// Any unexpected failure is recovered here and reported as ErrExtractionFailed.
func (e *Extractor) Extract(doc string) (rs *media.ResultSet, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("extraction panicked", zap.Any("panic", r))
			rs, err = nil, fmt.Errorf("%w: %v", ErrExtractionFailed, r)
		}
	}()

	normalized := Normalize(doc)
	seen := newSeenSet()

	candidates, seen := scanRules(normalized, e.rules, &e.tables.CDN, "", seen)
	primaryCount := len(candidates)

	parsed, parseErr := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if parseErr != nil {
		e.logger.Debug("skipping structured-data walkers", zap.Error(parseErr))
	} else {
		var walked []media.Candidate
		walked, seen = e.walkDocument(parsed, seen)
		candidates = append(candidates, walked...)
	}

	assets := e.accept(candidates)
	if len(assets) == 0 && len(e.fallback) > 0 {
		var fallback []media.Candidate
		fallback, seen = scanRules(normalized, e.fallback, &e.tables.CDN, "fallback/", seen)
		assets = e.accept(fallback)
		e.logger.Debug("fallback scan", zap.Int("candidates", len(fallback)), zap.Int("accepted", len(assets)))
	}
	total := len(assets)

	if len(assets) >= e.groupThreshold {
		assets = groupAssets(assets)
	}
	grouped := len(assets)

	if e.context.Enabled && len(assets) > e.context.Threshold {
		assets = contextFilter(normalized, assets, e.tables, e.context)
	}
	filtered := len(assets)

	assets = rankAndCap(assets, e.resultCap, e.diversityThreshold, e.perFormatLimit)

	e.logger.Debug("extraction finished",
		zap.Int("input_bytes", len(doc)),
		zap.Int("primary_candidates", primaryCount),
		zap.Int("candidates", len(seen)),
		zap.Int("accepted", total),
		zap.Int("grouped", grouped),
		zap.Int("context_filtered", filtered),
		zap.Int("returned", len(assets)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &media.ResultSet{Assets: assets, TotalFound: total}, nil
}

// accept validates candidates and classifies the survivors. A candidate
// that satisfies any bypass rule's signature skips the validator, whichever
// rule or walker found it, but never a segment marker.
func (e *Extractor) accept(candidates []media.Candidate) []media.Asset {
	assets := make([]media.Asset, 0, len(candidates))
	for _, c := range candidates {
		if c.Bypass || e.bypassed(c.URL) {
			if e.tables.CDN.excluded(c.URL) {
				continue
			}
		} else if err := e.validator.Check(c.URL); err != nil {
			if ce := e.logger.Check(zap.DebugLevel, "candidate rejected"); ce != nil {
				ce.Write(zap.String("rule", c.RuleID), zap.String("reason", err.Error()))
			}
			continue
		}
		assets = append(assets, e.classifier.Classify(c))
	}
	return assets
}

// bypassed reports whether u satisfies the signature of any bypass rule.
func (e *Extractor) bypassed(u string) bool {
	for _, r := range e.bypass {
		if r.bypasses(u, &e.tables.CDN) {
			return true
		}
	}
	return false
}
