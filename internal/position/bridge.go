package position

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Unit names the code unit an integer offset is measured in.
type Unit int

const (
	Byte     Unit = iota // UTF-8 code units
	Rune                 // Unicode code points
	UTF16                // UTF-16 code units; astral code points count twice
	Grapheme             // extended grapheme clusters
)

func (u Unit) String() string {
	switch u {
	case Byte:
		return "byte"
	case Rune:
		return "rune"
	case UTF16:
		return "utf16"
	case Grapheme:
		return "grapheme"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// ParseUnit maps a unit name (as printed by String) back to a Unit.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(s) {
	case "byte", "bytes", "utf8":
		return Byte, nil
	case "rune", "runes", "char", "codepoint":
		return Rune, nil
	case "utf16", "utf-16":
		return UTF16, nil
	case "grapheme", "graphemes":
		return Grapheme, nil
	}
	return Byte, fmt.Errorf("unknown unit %q", s)
}

var (
	ErrOutOfRange      = errors.New("position: offset out of range")
	ErrSplitsCodePoint = errors.New("position: offset splits a code point")
	ErrNotBoundary     = errors.New("position: index is not a grapheme cluster boundary")
)

// Index is a validated position in one subject string. The zero value is the
// start of every subject. Indexes from different subjects must not be mixed.
type Index struct {
	off int // byte offset on a code point boundary
}

// Compare returns -1, 0 or +1 as i is before, equal to or after j.
func (i Index) Compare(j Index) int {
	switch {
	case i.off < j.off:
		return -1
	case i.off > j.off:
		return 1
	}
	return 0
}

func (i Index) Before(j Index) bool { return i.off < j.off }
func (i Index) After(j Index) bool  { return i.off > j.off }

func (i Index) String() string { return fmt.Sprintf("@%d", i.off) }

// Max returns the later of a and b.
func Max(a, b Index) Index {
	if a.off >= b.off {
		return a
	}
	return b
}

// Min returns the earlier of a and b.
func Min(a, b Index) Index {
	if a.off <= b.off {
		return a
	}
	return b
}

// Range is the half-open span [Start, End).
type Range struct {
	Start, End Index
}

func (r Range) Empty() bool { return r.Start.off >= r.End.off }

// Contains reports whether i lies in [Start, End].
func (r Range) Contains(i Index) bool {
	return i.off >= r.Start.off && i.off <= r.End.off
}

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start.off, r.End.off) }

// Bridge translates between Index values of one subject string and integer
// offsets in any Unit. It is safe for concurrent use.
type Bridge struct {
	s     string
	ascii bool

	runeOnce sync.Once
	// runeStarts[k] is the byte offset of code point k; the last entry is len(s).
	runeStarts []int
	// utf16Starts[k] is the UTF-16 offset of code point k; the last entry is the UTF-16 length.
	utf16Starts []int

	graphemeOnce sync.Once
	// graphemes holds the byte offset of every cluster boundary, 0 and len(s) included.
	graphemes []int
}

// NewBridge creates a Bridge over s.
func NewBridge(s string) *Bridge {
	b := &Bridge{s: s, ascii: true}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			b.ascii = false
			break
		}
	}
	return b
}

// Text returns the subject the bridge was built over.
func (b *Bridge) Text() string { return b.s }

// Start is the index of the first character.
func (b *Bridge) Start() Index { return Index{} }

// End is the index just past the last character.
func (b *Bridge) End() Index { return Index{off: len(b.s)} }

// Whole is the range [Start, End).
func (b *Bridge) Whole() Range { return Range{End: b.End()} }

func (b *Bridge) buildRunes() {
	b.runeOnce.Do(func() {
		n := utf8.RuneCountInString(b.s)
		b.runeStarts = make([]int, 0, n+1)
		b.utf16Starts = make([]int, 0, n+1)
		u := 0
		for i, r := range b.s {
			b.runeStarts = append(b.runeStarts, i)
			b.utf16Starts = append(b.utf16Starts, u)
			if r >= 0x10000 && r <= utf8.MaxRune {
				u += 2
			} else {
				u++
			}
		}
		b.runeStarts = append(b.runeStarts, len(b.s))
		b.utf16Starts = append(b.utf16Starts, u)
	})
}

func (b *Bridge) buildGraphemes() {
	b.graphemeOnce.Do(func() {
		b.graphemes = append(b.graphemes, 0)
		g := uniseg.NewGraphemes(b.s)
		for g.Next() {
			_, to := g.Positions()
			b.graphemes = append(b.graphemes, to)
		}
		if b.graphemes[len(b.graphemes)-1] != len(b.s) {
			b.graphemes = append(b.graphemes, len(b.s))
		}
	})
}

// Len returns the length of the subject in unit u.
func (b *Bridge) Len(u Unit) int {
	if u == Grapheme {
		b.buildGraphemes()
		return len(b.graphemes) - 1
	}
	if b.ascii {
		return len(b.s)
	}
	switch u {
	case Rune:
		b.buildRunes()
		return len(b.runeStarts) - 1
	case UTF16:
		b.buildRunes()
		return b.utf16Starts[len(b.utf16Starts)-1]
	}
	return len(b.s)
}

// Index converts offset n, measured in unit u, to an Index.
func (b *Bridge) Index(n int, u Unit) (Index, error) {
	if n < 0 || n > b.Len(u) {
		return Index{}, fmt.Errorf("%w: %d %s of %d", ErrOutOfRange, n, u, b.Len(u))
	}
	if u == Grapheme {
		return Index{off: b.graphemes[n]}, nil
	}
	if b.ascii {
		return Index{off: n}, nil
	}
	b.buildRunes()
	switch u {
	case Byte:
		if k := sort.SearchInts(b.runeStarts, n); b.runeStarts[k] != n {
			return Index{}, fmt.Errorf("%w: byte %d", ErrSplitsCodePoint, n)
		}
		return Index{off: n}, nil
	case Rune:
		return Index{off: b.runeStarts[n]}, nil
	case UTF16:
		k := sort.SearchInts(b.utf16Starts, n)
		if b.utf16Starts[k] != n {
			return Index{}, fmt.Errorf("%w: utf16 %d", ErrSplitsCodePoint, n)
		}
		return Index{off: b.runeStarts[k]}, nil
	}
	return Index{}, fmt.Errorf("unknown unit %v", u)
}

// MustIndex is Index for offsets known to be valid.
func (b *Bridge) MustIndex(n int, u Unit) Index {
	i, err := b.Index(n, u)
	if err != nil {
		panic(err)
	}
	return i
}

// Offset converts i to an offset measured in unit u.
func (b *Bridge) Offset(i Index, u Unit) (int, error) {
	if err := b.Validate(i); err != nil {
		return 0, err
	}
	if u == Grapheme {
		b.buildGraphemes()
		k := sort.SearchInts(b.graphemes, i.off)
		if b.graphemes[k] != i.off {
			return 0, fmt.Errorf("%w: byte %d", ErrNotBoundary, i.off)
		}
		return k, nil
	}
	if b.ascii || u == Byte {
		return i.off, nil
	}
	b.buildRunes()
	k := sort.SearchInts(b.runeStarts, i.off)
	switch u {
	case Rune:
		return k, nil
	case UTF16:
		return b.utf16Starts[k], nil
	}
	return 0, fmt.Errorf("unknown unit %v", u)
}

// Span converts r to a pair of offsets in unit u.
func (b *Bridge) Span(r Range, u Unit) (start, end int, err error) {
	if start, err = b.Offset(r.Start, u); err != nil {
		return 0, 0, err
	}
	if end, err = b.Offset(r.End, u); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// RangeOf builds a Range from two offsets in unit u.
func (b *Bridge) RangeOf(start, end int, u Unit) (Range, error) {
	s, err := b.Index(start, u)
	if err != nil {
		return Range{}, err
	}
	e, err := b.Index(end, u)
	if err != nil {
		return Range{}, err
	}
	if e.off < s.off {
		return Range{}, fmt.Errorf("%w: end %d before start %d", ErrOutOfRange, end, start)
	}
	return Range{Start: s, End: e}, nil
}

// Validate reports whether i is a position inside this subject.
func (b *Bridge) Validate(i Index) error {
	if i.off < 0 || i.off > len(b.s) {
		return fmt.Errorf("%w: byte %d of %d", ErrOutOfRange, i.off, len(b.s))
	}
	if b.ascii || i.off == len(b.s) {
		return nil
	}
	b.buildRunes()
	if k := sort.SearchInts(b.runeStarts, i.off); b.runeStarts[k] != i.off {
		return fmt.Errorf("%w: byte %d", ErrSplitsCodePoint, i.off)
	}
	return nil
}

// Clamp limits i to [Start, End].
func (b *Bridge) Clamp(i Index) Index {
	if i.off > len(b.s) {
		return b.End()
	}
	if i.off < 0 {
		return Index{}
	}
	return i
}

// Slice returns the text covered by r.
func (b *Bridge) Slice(r Range) string {
	return b.s[r.Start.off:r.End.off]
}
