package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultMinURLLength is the shortest URL the validator accepts. Production
// asset URLs carry long signed query strings; shorter strings are noise.
const DefaultMinURLLength = 200

var opaqueTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var errNotHTTP = errors.New("not an absolute http(s) URL")

// Validator decides whether a candidate is a plausible standalone asset URL.
type Validator struct {
	cdn       *Fingerprint
	minLength int
}

// NewValidator creates a validator for the given fingerprint.
func NewValidator(cdn *Fingerprint, minLength int) *Validator {
	return &Validator{cdn: cdn, minLength: minLength}
}

// Validate reports whether rawURL satisfies every structural condition.
func (v *Validator) Validate(rawURL string) bool {
	return v.Check(rawURL) == nil
}

// Check is Validate with the reason for rejection.
func (v *Validator) Check(rawURL string) error {
	if len(rawURL) < v.minLength {
		return fmt.Errorf("too short: %d < %d", len(rawURL), v.minLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errNotHTTP
	}

	ext := v.cdn.extension(u.Path)
	if ext == "" {
		return fmt.Errorf("no playable extension in path")
	}
	if !v.cdn.hostMatches(u.Host) {
		return fmt.Errorf("host %q is not a known CDN", u.Host)
	}
	if !v.hasMediaPath(u.Path) {
		return fmt.Errorf("path has no media segment")
	}

	token := filenameToken(u.Path, ext)
	if len(token) < v.cdn.MinTokenLength || !opaqueTokenPattern.MatchString(token) {
		return fmt.Errorf("filename %q is not an opaque asset token", token)
	}
	if !v.cdn.hasRequiredParams(u.RawQuery) {
		return fmt.Errorf("missing signed query parameters")
	}
	if v.cdn.excluded(rawURL) {
		return fmt.Errorf("manifest or segment reference")
	}
	return nil
}

func (v *Validator) hasMediaPath(path string) bool {
	if len(v.cdn.PathSegments) == 0 {
		return true
	}
	for _, seg := range v.cdn.PathSegments {
		if strings.Contains(path, seg) {
			return true
		}
	}
	return false
}

// filenameToken returns the path segment immediately preceding ext.
func filenameToken(path, ext string) string {
	idx := strings.LastIndex(strings.ToLower(path), ext)
	if idx < 0 {
		return ""
	}
	before := path[:idx]
	return before[strings.LastIndexByte(before, '/')+1:]
}
