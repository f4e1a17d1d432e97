package regex

import (
	"github.com/dl/gorex/internal/engine"
	"github.com/dl/gorex/internal/position"
)

// Matcher walks the matches of one Pattern clone over a subject string.
//
// Besides the engine's search position it tracks the region searches are
// confined to and the append position used by AppendReplacement and
// AppendTail. After a successful search the Matcher holds an active match;
// match accessors fail with ErrNoActiveMatch otherwise.
type Matcher struct {
	pattern *Pattern
	h       *engine.Handle
	unit    position.Unit

	bridge  *position.Bridge
	region  position.Range
	prevEnd position.Index
	matched bool

	// last parsed replacement template
	tmpl *Template
}

func newMatcher(p *Pattern, subject string) (*Matcher, error) {
	m := &Matcher{pattern: p, h: p.h, unit: p.h.Unit()}
	if err := m.Reset(subject); err != nil {
		return nil, err
	}
	return m, nil
}

// Pattern is the clone this Matcher owns.
func (m *Matcher) Pattern() *Pattern { return m.pattern }

// Subject is the bound string.
func (m *Matcher) Subject() string { return m.bridge.Text() }

// Bridge translates positions of the bound subject.
func (m *Matcher) Bridge() *Bridge { return m.bridge }

// Region is the span searches are confined to.
func (m *Matcher) Region() Range { return m.region }

func (m *Matcher) toEngine(i position.Index) (int, error) {
	return m.bridge.Offset(i, m.unit)
}

func (m *Matcher) fromEngine(n int) (position.Index, error) {
	return m.bridge.Index(n, m.unit)
}

// Reset binds a new subject. The region becomes the whole subject and any
// active match is dropped.
func (m *Matcher) Reset(subject string) error {
	if err := m.h.SetSubject(engine.NewText(subject, m.unit)); err != nil {
		return wrapErr(err)
	}
	m.bridge = position.NewBridge(subject)
	m.region = m.bridge.Whole()
	m.matched = false
	m.resetEnd()
	return nil
}

// ResetAt drops the active match; the next Find starts at i, clamped into
// the region.
func (m *Matcher) ResetAt(i Index) error {
	if err := m.bridge.Validate(i); err != nil {
		return wrapErr(err)
	}
	i = position.Max(m.region.Start, position.Min(i, m.region.End))
	off, err := m.toEngine(i)
	if err != nil {
		return wrapErr(err)
	}
	if err := m.h.Reset(off); err != nil {
		return wrapErr(err)
	}
	m.matched = false
	m.resetEnd()
	return nil
}

// SetRegion confines searches to r. Indexes from this Matcher's Bridge never
// lie past the subject; an end that does (one kept from a longer subject
// before Reset) is clamped to the subject's end.
func (m *Matcher) SetRegion(r Range) error {
	r.End = m.bridge.Clamp(r.End)
	if err := m.bridge.Validate(r.Start); err != nil {
		return wrapErr(err)
	}
	if err := m.bridge.Validate(r.End); err != nil {
		return wrapErr(err)
	}
	if r.End.Before(r.Start) {
		return &EngineError{Code: CodeIndexOutOfBounds, Err: position.ErrOutOfRange}
	}
	lo, err := m.toEngine(r.Start)
	if err != nil {
		return wrapErr(err)
	}
	hi, err := m.toEngine(r.End)
	if err != nil {
		return wrapErr(err)
	}
	if err := m.h.SetRegion(lo, hi); err != nil {
		return wrapErr(err)
	}
	m.region = r
	m.matched = false
	m.resetEnd()
	return nil
}

// Matches reports whether the whole region matches the pattern.
func (m *Matcher) Matches() (bool, error) {
	m.resetEnd()
	ok, err := m.h.MatchesWholeRegion()
	m.matched = ok && err == nil
	return m.matched, wrapErr(err)
}

// Find searches for the next match after the active one, or from the reset
// position when there is none.
func (m *Matcher) Find() (bool, error) {
	m.keepEnd()
	ok, err := m.h.FindNext()
	m.matched = ok && err == nil
	return m.matched, wrapErr(err)
}

// FindAt resets the matcher and searches from i, or from the region start if
// i lies before it.
func (m *Matcher) FindAt(i Index) (bool, error) {
	m.resetEnd()
	if err := m.bridge.Validate(i); err != nil {
		m.matched = false
		return false, wrapErr(err)
	}
	off, err := m.toEngine(position.Max(m.region.Start, i))
	if err != nil {
		m.matched = false
		return false, wrapErr(err)
	}
	ok, err := m.h.FindFrom(off)
	m.matched = ok && err == nil
	return m.matched, wrapErr(err)
}

// HitEnd reports whether the last search reached the end of the region.
func (m *Matcher) HitEnd() (bool, error) {
	hit, err := m.h.HitEnd()
	return hit, wrapErr(err)
}

// Range is the span of the active match.
func (m *Matcher) Range() (Range, error) {
	g, err := m.Group(0)
	return g.r, err
}

// Group returns group n of the active match.
func (m *Matcher) Group(n int) (Group, error) {
	start, err := m.h.GroupStart(n)
	if err != nil {
		return Group{}, wrapErr(err)
	}
	end, err := m.h.GroupEnd(n)
	if err != nil {
		return Group{}, wrapErr(err)
	}
	return m.group(start, end)
}

// GroupByName returns the named group of the active match.
func (m *Matcher) GroupByName(name string) (Group, error) {
	n, err := m.pattern.GroupNumber(name)
	if err != nil {
		return Group{}, err
	}
	return m.Group(n)
}

func (m *Matcher) group(start, end int) (Group, error) {
	g := Group{bridge: m.bridge}
	if start < 0 || end < 0 {
		return g, nil
	}
	s, err := m.fromEngine(start)
	if err != nil {
		return Group{}, wrapErr(err)
	}
	e, err := m.fromEngine(end)
	if err != nil {
		return Group{}, wrapErr(err)
	}
	g.r, g.matched = position.Range{Start: s, End: e}, true
	return g, nil
}

// Match snapshots the active match.
func (m *Matcher) Match() (*Match, error) {
	loc, err := m.h.Loc()
	if err != nil {
		return nil, wrapErr(err)
	}
	groups := make([]Group, len(loc)/2)
	for i := range groups {
		if groups[i], err = m.group(loc[2*i], loc[2*i+1]); err != nil {
			return nil, err
		}
	}
	return &Match{bridge: m.bridge, names: m.h.GroupNames(), groups: groups}, nil
}

// AppendReplacement appends the text between the append position and the
// active match, then the expanded template, and moves the append position
// past the match. On error dst is returned unchanged.
func (m *Matcher) AppendReplacement(dst []byte, template string) ([]byte, error) {
	match, err := m.Match()
	if err != nil {
		return dst, err
	}
	if m.tmpl == nil || m.tmpl.text != template {
		t, err := ParseTemplate(m.pattern, template)
		if err != nil {
			return dst, err
		}
		m.tmpl = t
	}
	dst = m.appendGap(dst, match.Range().Start)
	dst = m.tmpl.Expand(dst, match)
	m.keepEnd()
	return dst, nil
}

// AppendLiteralReplacement is AppendReplacement with text appended verbatim.
func (m *Matcher) AppendLiteralReplacement(dst []byte, text string) ([]byte, error) {
	r, err := m.Range()
	if err != nil {
		return dst, err
	}
	dst = m.appendGap(dst, r.Start)
	dst = append(dst, text...)
	m.keepEnd()
	return dst, nil
}

// AppendTail appends the text from the append position to the region end.
func (m *Matcher) AppendTail(dst []byte) []byte {
	return m.appendGap(dst, m.region.End)
}

func (m *Matcher) appendGap(dst []byte, to position.Index) []byte {
	if to.Before(m.prevEnd) {
		return dst
	}
	return append(dst, m.bridge.Slice(position.Range{Start: m.prevEnd, End: to})...)
}

// keepEnd moves the append position to the end of the active match, or back
// to the region start when there is none.
func (m *Matcher) keepEnd() {
	if !m.matched {
		m.resetEnd()
		return
	}
	end, err := m.h.GroupEnd(0)
	if err != nil {
		m.resetEnd()
		return
	}
	i, err := m.fromEngine(end)
	if err != nil {
		m.resetEnd()
		return
	}
	m.prevEnd = i
}

func (m *Matcher) resetEnd() { m.prevEnd = m.region.Start }

// Clone returns an independent Matcher over the same subject and region.
func (m *Matcher) Clone() (*Matcher, error) {
	p, err := m.pattern.Clone()
	if err != nil {
		return nil, err
	}
	c, err := newMatcher(p, m.Subject())
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := c.SetRegion(m.region); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Close releases the Matcher's pattern clone.
func (m *Matcher) Close() error { return m.pattern.Close() }
