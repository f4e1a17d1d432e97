package regex

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Template is a parsed replacement string.
//
//	\c      the character c, literally; a trailing \ is dropped
//	$n      group n, taking the longest digit run that stays <= GroupCount
//	${name} the named group
//
// Groups that did not participate expand to nothing.
type Template struct {
	text     string
	segments []segment
}

type segment struct {
	lit   string
	group int // -1 for literal segments
}

// ParseTemplate parses text against p's groups.
func ParseTemplate(p *Pattern, text string) (*Template, error) {
	return parseTemplate(text, p.GroupCount(), p.lookup)
}

func parseTemplate(text string, groups int, lookup func(string) (int, error)) (*Template, error) {
	t := &Template{text: text}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{lit: lit.String(), group: -1})
			lit.Reset()
		}
	}
	bad := func(pos int, format string, args ...any) error {
		return &InvalidGroupReferenceError{Template: text, Pos: pos, Reason: fmt.Sprintf(format, args...)}
	}

	for i := 0; i < len(text); {
		switch c := text[i]; c {
		case '\\':
			if i+1 >= len(text) {
				i++
				continue
			}
			_, size := utf8.DecodeRuneInString(text[i+1:])
			lit.WriteString(text[i+1 : i+1+size])
			i += 1 + size
		case '$':
			pos := i
			i++
			if i >= len(text) {
				return nil, bad(pos, "missing group after $")
			}
			var n int
			switch d := text[i]; {
			case isDigit(d):
				digits := 0
				for i < len(text) && isDigit(text[i]) {
					next := n*10 + int(text[i]-'0')
					if next > groups {
						break
					}
					n = next
					digits++
					i++
				}
				if digits == 0 {
					return nil, bad(pos, "group %c exceeds group count %d", d, groups)
				}
			case d == '{':
				end := strings.IndexByte(text[i+1:], '}')
				if end < 0 {
					return nil, bad(pos, "unterminated group name")
				}
				name := text[i+1 : i+1+end]
				if name == "" {
					return nil, bad(pos, "empty group name")
				}
				var err error
				if n, err = lookup(name); err != nil {
					return nil, err
				}
				i += end + 2
			default:
				r, _ := utf8.DecodeRuneInString(text[i:])
				return nil, bad(pos, "unexpected %q after $", r)
			}
			flush()
			t.segments = append(t.segments, segment{group: n})
		default:
			lit.WriteByte(c)
			i++
		}
	}
	flush()
	return t, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (t *Template) String() string { return t.text }

// Literal reports whether the template references no groups.
func (t *Template) Literal() bool {
	for _, s := range t.segments {
		if s.group >= 0 {
			return false
		}
	}
	return true
}

// Expand appends the template, filled in from m, to dst.
func (t *Template) Expand(dst []byte, m *Match) []byte {
	for _, s := range t.segments {
		if s.group < 0 {
			dst = append(dst, s.lit...)
			continue
		}
		if s.group < len(m.groups) && m.groups[s.group].matched {
			dst = append(dst, m.groups[s.group].String()...)
		}
	}
	return dst
}

// Expand parses text against m's groups and returns the expansion.
func Expand(text string, m *Match) (string, error) {
	t, err := parseTemplate(text, m.GroupCount(), m.lookup)
	if err != nil {
		return "", err
	}
	return string(t.Expand(nil, m)), nil
}
