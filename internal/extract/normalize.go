package extract

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/net/html"
)

// maxNormalizePasses bounds how many layers of nested escaping are peeled off.
const maxNormalizePasses = 8

// Normalize decodes JavaScript escapes, HTML entities and backslash-escaped
// quotes and slashes so URL patterns can match the canonical text.
// Decoding repeats until the text stops changing, so normalized text is a
// fixed point for any input with at most maxNormalizePasses escape layers.
func Normalize(text string) string {
	for i := 0; i < maxNormalizePasses; i++ {
		next := normalizeOnce(text)
		if next == text {
			return text
		}
		text = next
	}
	return text
}

func normalizeOnce(text string) string {
	text = decodeEscapes(text)
	if strings.IndexByte(text, '&') >= 0 {
		text = html.UnescapeString(text)
	}
	return text
}

// decodeEscapes handles \uXXXX (including surrogate pairs), \xXX, \/, \" and \'.
// Unrecognised or malformed escapes are copied through untouched.
func decodeEscapes(s string) string {
	if strings.IndexByte(s, '\\') < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		switch s[i+1] {
		case 'u':
			r, ok := hexRune(s, i+2, 4)
			if !ok {
				break
			}
			if !utf16.IsSurrogate(r) {
				b.WriteRune(r)
				i += 6
				continue
			}
			if i+12 <= len(s) && s[i+6] == '\\' && s[i+7] == 'u' {
				if r2, ok := hexRune(s, i+8, 4); ok {
					if d := utf16.DecodeRune(r, r2); d != unicode.ReplacementChar {
						b.WriteRune(d)
						i += 12
						continue
					}
				}
			}
			// Lone surrogate: keep it literal.
			b.WriteString(s[i : i+6])
			i += 6
			continue
		case 'x':
			if r, ok := hexRune(s, i+2, 2); ok {
				b.WriteRune(r)
				i += 4
				continue
			}
		case '/', '"', '\'':
			b.WriteByte(s[i+1])
			i += 2
			continue
		}

		b.WriteByte(c)
		i++
	}

	return b.String()
}

// hexRune parses n hex digits of s starting at start.
func hexRune(s string, start, n int) (rune, bool) {
	if start+n > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[start:start+n], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
