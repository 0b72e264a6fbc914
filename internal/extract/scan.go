package extract

import (
	"clipharvest/internal/media"
)

// scanRules runs every rule over text in priority order. ruleIDPrefix is
// prepended to each candidate's RuleID, so walkers can re-use the table.
func scanRules(text string, rules []compiledRule, cdn *Fingerprint, ruleIDPrefix string, seen seenSet) ([]media.Candidate, seenSet) {
	var out []media.Candidate

	for i := range rules {
		r := &rules[i]
		for _, loc := range r.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*r.Group], loc[2*r.Group+1]
			if start < 0 {
				continue
			}
			if wrappedInManifestTag(text, start) {
				continue
			}

			decoded, ok := decodeMatch(text[start:end])
			if !ok {
				continue
			}
			if !seen.add(decoded) {
				continue
			}

			out = append(out, media.Candidate{
				URL:    decoded,
				RuleID: ruleIDPrefix + r.ID,
				Bypass: r.bypasses(decoded, cdn),
			})
		}
	}

	return out, seen
}
