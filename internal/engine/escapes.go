package engine

import (
	"regexp"
	"strings"
)

// Escape letters each syntax recognizes. Any other backslash-letter pair is
// an unknown escape.
const (
	pcreEscapes    = "aAbBcCdDeEfgGhHkKnNopPQrRsStvVwWxXzZ"
	re2Escapes     = "aAbBdDfnpPQErstvwWxz"
	regexp2Escapes = "aAbBcdDeEfGkMnpPrsStuvwWxzZ"
)

// relaxEscapes rewrites unknown backslash-letter escapes to the bare letter,
// leaving \Q...\E spans untouched.
func relaxEscapes(pattern, known string) string {
	if !strings.Contains(pattern, `\`) {
		return pattern
	}
	var b strings.Builder
	b.Grow(len(pattern))
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '\\' || i+1 >= len(pattern) {
			b.WriteByte(c)
			continue
		}
		n := pattern[i+1]
		switch {
		case n == 'Q':
			end := strings.Index(pattern[i+2:], `\E`)
			if end < 0 {
				b.WriteString(pattern[i:])
				return b.String()
			}
			b.WriteString(pattern[i : i+2+end+2])
			i += 2 + end + 1
		case isLetter(n) && strings.IndexByte(known, n) < 0:
			b.WriteByte(n)
			i++
		default:
			b.WriteByte(c)
			b.WriteByte(n)
			i++
		}
	}
	return b.String()
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// prepare applies the options every backend handles the same way: literal
// quoting and unknown-escape leniency.
func prepare(pattern string, opts Options, known string) (string, Options) {
	if opts&Literal != 0 {
		return regexp.QuoteMeta(pattern), opts &^ Comments
	}
	if opts&ErrorOnUnknownEscapes == 0 {
		pattern = relaxEscapes(pattern, known)
	}
	return pattern, opts
}
