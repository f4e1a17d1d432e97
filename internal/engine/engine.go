// Package engine is the boundary between the regex facade and the concrete
// regular-expression engines. Engines report offsets in their own code unit
// (UTF-8 bytes or code points); the caller owns translation to string
// positions.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/dl/gorex/internal/position"
)

// Kind selects an engine backend.
type Kind int

const (
	PCRE    Kind = iota // go.elara.ws/pcre, the default
	Regexp2             // github.com/dlclark/regexp2, .NET syntax
	RE2                 // stdlib regexp
	Coregex             // github.com/coregx/coregex, RE2 syntax
)

func (k Kind) String() string {
	switch k {
	case PCRE:
		return "pcre"
	case Regexp2:
		return "regexp2"
	case RE2:
		return "re2"
	case Coregex:
		return "coregex"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an engine name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "pcre", "pcre2", "":
		return PCRE, nil
	case "regexp2", "dotnet":
		return Regexp2, nil
	case "re2", "go":
		return RE2, nil
	case "coregex":
		return Coregex, nil
	}
	return PCRE, fmt.Errorf("unknown engine %q", s)
}

// Options is the compile flag bitset understood by every backend.
type Options uint32

const (
	CaseInsensitive Options = 1 << iota
	Comments                // whitespace and #-comments ignored in the pattern
	DotAll                  // . matches line terminators
	Literal                 // the pattern is literal text
	Multiline               // ^ and $ match at line boundaries
	UnixLines               // only \n is a line terminator
	UnicodeWord             // \b and \w follow Unicode word rules
	ErrorOnUnknownEscapes   // unknown backslash-letter escapes are errors

	Default = ErrorOnUnknownEscapes
)

var optionNames = []struct {
	opt  Options
	name string
}{
	{CaseInsensitive, "CaseInsensitive"},
	{Comments, "Comments"},
	{DotAll, "DotAll"},
	{Literal, "Literal"},
	{Multiline, "Multiline"},
	{UnixLines, "UnixLines"},
	{UnicodeWord, "UnicodeWord"},
	{ErrorOnUnknownEscapes, "ErrorOnUnknownEscapes"},
}

func (o Options) String() string {
	var names []string
	for _, on := range optionNames {
		if o&on.opt != 0 {
			names = append(names, on.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

var (
	ErrClosed     = errors.New("engine: handle closed")
	ErrNoMatch    = errors.New("engine: no current match")
	ErrOutOfRange = errors.New("engine: index out of bounds")
	ErrNoGroup    = errors.New("engine: no such capture group")
)

// SyntaxError reports a pattern the backend rejected. Offset is a byte offset
// into the pattern text as given by the caller.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// UnsupportedError reports an option a backend cannot honor.
type UnsupportedError struct {
	Kind   Kind
	Option Options
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s engine does not support option %s", e.Kind, e.Option)
}

// Text is a subject prepared in an engine's code unit. Exactly one of Bytes
// and Runes is populated, as dictated by the program's Unit.
type Text struct {
	Bytes []byte
	Runes []rune
}

// NewText converts s to the representation unit u requires.
func NewText(s string, u position.Unit) Text {
	if u == position.Rune {
		return Text{Runes: []rune(s)}
	}
	return Text{Bytes: []byte(s)}
}

// Len is the text length in its own unit.
func (t Text) Len() int {
	if t.Runes != nil {
		return len(t.Runes)
	}
	return len(t.Bytes)
}

// Slice returns the sub-text [lo, hi).
func (t Text) Slice(lo, hi int) Text {
	if t.Runes != nil {
		return Text{Runes: t.Runes[lo:hi]}
	}
	return Text{Bytes: t.Bytes[lo:hi]}
}

// Program is a compiled pattern. It is immutable and shared by every Handle
// cloned from the same compilation.
//
// Match locations use the layout of regexp.FindSubmatchIndex: pairs of
// offsets for groups 0..GroupCount, -1 for groups that did not participate.
type Program interface {
	Unit() position.Unit
	GroupCount() int
	// GroupNames is indexed by group number; unnamed groups are "".
	GroupNames() []string
	// FindAll returns successive non-overlapping matches, treating t as the
	// whole input.
	FindAll(t Text) ([][]int, error)
	// MatchWhole matches the entire text, or returns nil.
	MatchWhole(t Text) ([]int, error)
	Close() error
}

// Seeker is implemented by programs that can start a search at an offset
// while still seeing the text before it.
type Seeker interface {
	FindAt(t Text, at int) ([]int, error)
}

// shared reference-counts a Program across handles.
type shared struct {
	prog Program
	refs atomic.Int32
}

func (s *shared) acquire() { s.refs.Add(1) }

func (s *shared) release() error {
	if s.refs.Add(-1) == 0 {
		return s.prog.Close()
	}
	return nil
}

// Compile builds a Program for kind. The returned Handle is its first owner.
func Compile(kind Kind, pattern string, opts Options) (*Handle, error) {
	var (
		prog Program
		err  error
	)
	switch kind {
	case PCRE:
		prog, err = compilePCRE(pattern, opts)
	case Regexp2:
		prog, err = compileRegexp2(pattern, opts)
	case RE2:
		prog, err = compileRE2(pattern, opts)
	case Coregex:
		prog, err = compileCoregex(pattern, opts)
	default:
		return nil, fmt.Errorf("unknown engine %v", kind)
	}
	if err != nil {
		return nil, err
	}
	sh := &shared{prog: prog}
	sh.acquire()
	return newHandle(sh), nil
}

// seekAll collects successive matches of s over t the way Handle walks
// them.
func seekAll(s Seeker, t Text) ([][]int, error) {
	var out [][]int
	for at := 0; at <= t.Len(); {
		loc, err := s.FindAt(t, at)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			break
		}
		out = append(out, loc)
		at = nextStart(t, loc)
	}
	return out, nil
}

// nextStart is where the search after loc resumes: the end of loc, or one
// code point past it when loc is empty. Past the end of t it returns
// t.Len()+1.
func nextStart(t Text, loc []int) int {
	end := loc[1]
	if loc[0] != end {
		return end
	}
	if t.Runes != nil || end >= len(t.Bytes) {
		return end + 1
	}
	_, w := utf8.DecodeRune(t.Bytes[end:])
	return end + w
}

// matchWholeLoc checks that a located match spans all n units of the text.
func matchWholeLoc(loc []int, n int) []int {
	if loc == nil || loc[0] != 0 || loc[1] != n {
		return nil
	}
	return loc
}

// normalizeLoc pads loc to 2*(groups+1) entries and marks groups the engine
// reported out of range as unset.
func normalizeLoc(loc []int, groups, n int) []int {
	out := make([]int, 2*(groups+1))
	for i := range out {
		out[i] = -1
	}
	for g := 0; g <= groups && 2*g+1 < len(loc); g++ {
		s, e := loc[2*g], loc[2*g+1]
		if s < 0 || e < s || e > n {
			continue
		}
		out[2*g], out[2*g+1] = s, e
	}
	return out
}
