package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
)

// Rule is one entry of the scanner's pattern table.
//
// A rule with BypassValidator set accepts its matches without the general
// validator when they also satisfy Signature. An empty Signature means the
// CDN fingerprint's host tokens plus a playable extension. This exists for
// legitimate assets whose URLs are shorter than the validator's length floor.
type Rule struct {
	ID              string `toml:"id"`
	Pattern         string `toml:"pattern"`
	Group           int    `toml:"group"` // Capture group to extract; 0 is the whole match
	Priority        int    `toml:"priority"`
	BypassValidator bool   `toml:"bypass_validator"`
	Signature       string `toml:"signature"`
}

type compiledRule struct {
	Rule
	re  *regexp.Regexp
	sig *regexp.Regexp
}

// DefaultRules returns the primary, high-precision rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "json-url",
			Pattern:  `"[A-Za-z_]*(?:url|src|Url|Src|URL)[A-Za-z_]*"\s*:\s*"(https?://[^"\s]+)"`,
			Group:    1,
			Priority: 10,
		},
		{
			ID:              "cdn-direct",
			Pattern:         `https?://[A-Za-z0-9.-]+/[^\s"'<>]+?\.(?:mp4|m4v|mov)(?:\?[^\s"'<>]*)?`,
			Priority:        20,
			BypassValidator: true,
		},
		{
			ID:       "html-attr",
			Pattern:  `(?i)(?:src|href|data-src|data-video-src|content)\s*=\s*["'](https?://[^"'\s]+)["']`,
			Group:    1,
			Priority: 30,
		},
		{
			ID:       "encoded-url",
			Pattern:  `(?i)https?%3A%2F%2F[^\s"'<>&]+`,
			Priority: 40,
		},
		{
			ID:       "quoted-url",
			Pattern:  `["'](https?://[^"'\s]{20,})["']`,
			Group:    1,
			Priority: 50,
		},
	}
}

// DefaultFallbackRules returns the broader rule set used only when the
// primary table yields nothing usable.
func DefaultFallbackRules() []Rule {
	return []Rule{
		{
			ID:       "loose-host",
			Pattern:  `(?i)https?://[a-z0-9.-]*(?:fbcdn|cdninstagram|video)[a-z0-9.-]*/[^\s"'<>(){}\[\]]+`,
			Priority: 10,
		},
		{
			ID:       "loose-extension",
			Pattern:  `(?i)https?://[^\s"'<>(){}\[\]]+?\.(?:mp4|m4v|mov|webm)[^\s"'<>(){}\[\]]*`,
			Priority: 20,
		},
	}
}

// compileRules validates and compiles a rule table, ordered by priority.
func compileRules(rules []Rule) ([]compiledRule, error) {
	seen := make(map[string]bool, len(rules))
	compiled := make([]compiledRule, 0, len(rules))

	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule #%d: missing id", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true

		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q: compiling pattern: %w", r.ID, err)
		}
		if r.Group < 0 || r.Group > re.NumSubexp() {
			return nil, fmt.Errorf("rule %q: group %d out of range (pattern has %d)", r.ID, r.Group, re.NumSubexp())
		}

		cr := compiledRule{Rule: r, re: re}
		if r.Signature != "" {
			if !r.BypassValidator {
				return nil, fmt.Errorf("rule %q: signature set without bypass_validator", r.ID)
			}
			cr.sig, err = regexp.Compile(r.Signature)
			if err != nil {
				return nil, fmt.Errorf("rule %q: compiling signature: %w", r.ID, err)
			}
		}
		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority < compiled[j].Priority
	})
	return compiled, nil
}

// bypasses reports whether a decoded match may skip the validator.
func (r *compiledRule) bypasses(candidate string, cdn *Fingerprint) bool {
	if !r.BypassValidator {
		return false
	}
	if r.sig != nil {
		return r.sig.MatchString(candidate)
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return cdn.hostMatches(u.Host) && cdn.extension(u.Path) != ""
}
