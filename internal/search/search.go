// Package search runs one compiled pattern over one subject and collects what
// the command line asked for: hits, a count, rewritten text or split fields.
package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dl/gorex/regex"
)

// Mode selects what a Searcher produces.
type Mode int

const (
	ModeFind Mode = iota
	ModeCount
	ModeReplace
	ModeSplit
)

func (m Mode) String() string {
	switch m {
	case ModeFind:
		return "find"
	case ModeCount:
		return "count"
	case ModeReplace:
		return "replace"
	case ModeSplit:
		return "split"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Region limits a search to [Start, End) of each subject, in the Searcher's
// unit. A negative End means the end of the subject.
type Region struct {
	Start, End int
}

// ParseRegion parses "START:END". Either side may be empty.
func ParseRegion(s string) (Region, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return Region{}, fmt.Errorf("region %q: want START:END", s)
	}
	r := Region{End: -1}
	var err error
	if lo != "" {
		if r.Start, err = strconv.Atoi(lo); err != nil || r.Start < 0 {
			return Region{}, fmt.Errorf("region %q: bad start", s)
		}
	}
	if hi != "" {
		if r.End, err = strconv.Atoi(hi); err != nil || r.End < r.Start {
			return Region{}, fmt.Errorf("region %q: bad end", s)
		}
	}
	return r, nil
}

func (r Region) resolve(b *regex.Bridge, u regex.Unit) (regex.Range, error) {
	start, err := b.Index(r.Start, u)
	if err != nil {
		return regex.Range{}, err
	}
	end := b.End()
	if r.End >= 0 {
		if end, err = b.Index(r.End, u); err != nil {
			return regex.Range{}, err
		}
	}
	return regex.Range{Start: start, End: end}, nil
}

// Options configures a Searcher.
type Options struct {
	Mode     Mode
	Unit     regex.Unit
	Region   *Region
	Template string // ModeReplace
	Literal  bool   // append Template verbatim
	Limit    int    // ModeSplit; <= 0 means no limit
}

// Group is one capture group of a Hit. Start and End are in the Searcher's
// unit relative to the subject; Local is the byte span within Hit.Text.
type Group struct {
	Index   int
	Name    string
	Matched bool
	Start   int
	End     int
	Local   [2]int
	Text    string
}

// Hit is one match.
type Hit struct {
	Line     int   // 1-based line of the match start
	LineByte int64 // byte offset of that line
	Column   int   // 1-based, in the Searcher's unit
	Start    int
	End      int
	Text     string
	Groups   []Group // groups 1..n
}

// Report is everything a Searcher found in one subject.
type Report struct {
	Hits   []Hit
	Count  int
	Output []byte   // ModeReplace: the whole rewritten subject
	Fields []string // ModeSplit
	HitEnd bool
}

// Searcher applies Options to subjects. It holds no per-subject state and is
// safe for concurrent use.
type Searcher struct {
	opts Options
}

// New validates opts and returns a Searcher.
func New(opts Options) (*Searcher, error) {
	if opts.Mode < ModeFind || opts.Mode > ModeSplit {
		return nil, fmt.Errorf("unknown mode %v", opts.Mode)
	}
	return &Searcher{opts: opts}, nil
}

func (s *Searcher) Options() Options { return s.opts }

// Search runs p over data. p is borrowed: the Searcher works on its own
// matcher and closes it before returning.
func (s *Searcher) Search(p *regex.Pattern, data []byte) (Report, error) {
	m, err := p.Matcher(string(data))
	if err != nil {
		return Report{}, err
	}
	defer m.Close()

	if s.opts.Region != nil {
		r, err := s.opts.Region.resolve(m.Bridge(), s.opts.Unit)
		if err != nil {
			return Report{}, fmt.Errorf("region: %w", err)
		}
		if err := m.SetRegion(r); err != nil {
			return Report{}, fmt.Errorf("region: %w", err)
		}
	}

	var rep Report
	switch s.opts.Mode {
	case ModeFind:
		err = s.find(m, data, &rep)
	case ModeCount:
		err = s.count(m, &rep)
	case ModeReplace:
		err = s.replace(m, data, &rep)
	case ModeSplit:
		err = s.split(m, &rep)
	}
	if err != nil {
		return Report{}, err
	}
	if rep.HitEnd, err = m.HitEnd(); err != nil {
		return Report{}, err
	}
	return rep, nil
}

func (s *Searcher) count(m *regex.Matcher, rep *Report) error {
	for {
		ok, err := m.Find()
		if err != nil || !ok {
			return err
		}
		rep.Count++
	}
}

func (s *Searcher) find(m *regex.Matcher, data []byte, rep *Report) error {
	b := m.Bridge()
	names := m.Pattern().GroupNames()
	lines := newLineCursor(data)
	for {
		ok, err := m.Find()
		if err != nil || !ok {
			return err
		}
		match, err := m.Match()
		if err != nil {
			return err
		}
		hit, err := s.hit(b, lines, names, match)
		if err != nil {
			return err
		}
		rep.Hits = append(rep.Hits, hit)
		rep.Count++
	}
}

func (s *Searcher) hit(b *regex.Bridge, lines *lineCursor, names []string, match *regex.Match) (Hit, error) {
	u := s.opts.Unit
	byteStart, _, err := match.Span(regex.Byte)
	if err != nil {
		return Hit{}, err
	}
	start, end, err := match.Span(u)
	if err != nil {
		return Hit{}, fmt.Errorf("match at byte %d: %w", byteStart, err)
	}
	ln := lines.at(byteStart)
	lineIdx, err := b.Index(ln.start, regex.Byte)
	if err != nil {
		return Hit{}, err
	}
	lineOff, err := b.Offset(lineIdx, u)
	if err != nil {
		return Hit{}, fmt.Errorf("line %d: %w", ln.num, err)
	}

	hit := Hit{
		Line:     ln.num,
		LineByte: int64(ln.start),
		Column:   start - lineOff + 1,
		Start:    start,
		End:      end,
		Text:     match.String(),
	}
	for n, g := range match.Groups()[1:] {
		grp := Group{Index: n + 1, Matched: g.Matched(), Local: [2]int{-1, -1}}
		if n+1 < len(names) {
			grp.Name = names[n+1]
		}
		if g.Matched() {
			if grp.Start, grp.End, err = g.Span(u); err != nil {
				return Hit{}, fmt.Errorf("group %d: %w", n+1, err)
			}
			gs, ge, err := g.Span(regex.Byte)
			if err != nil {
				return Hit{}, err
			}
			grp.Local = [2]int{gs - byteStart, ge - byteStart}
			grp.Text = g.String()
		}
		hit.Groups = append(hit.Groups, grp)
	}
	return hit, nil
}

// replace rewrites the region and keeps the text around it untouched.
func (s *Searcher) replace(m *regex.Matcher, data []byte, rep *Report) error {
	b := m.Bridge()
	region := m.Region()
	lo, hi, err := b.Span(region, regex.Byte)
	if err != nil {
		return err
	}
	var tmpl *regex.Template
	if !s.opts.Literal {
		if tmpl, err = regex.ParseTemplate(m.Pattern(), s.opts.Template); err != nil {
			return err
		}
	}

	out := append(make([]byte, 0, len(data)), data[:lo]...)
	for {
		ok, err := m.Find()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if tmpl != nil {
			out, err = m.AppendReplacement(out, tmpl.String())
		} else {
			out, err = m.AppendLiteralReplacement(out, s.opts.Template)
		}
		if err != nil {
			return err
		}
		rep.Count++
	}
	out = m.AppendTail(out)
	rep.Output = append(out, data[hi:]...)
	return nil
}

func (s *Searcher) split(m *regex.Matcher, rep *Report) error {
	b := m.Bridge()
	region := m.Region()
	start := region.Start
	for s.opts.Limit <= 0 || len(rep.Fields) < s.opts.Limit-1 {
		ok, err := m.Find()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		r, err := m.Range()
		if err != nil {
			return err
		}
		rep.Fields = append(rep.Fields, b.Slice(regex.Range{Start: start, End: r.Start}))
		start = r.End
		rep.Count++
	}
	rep.Fields = append(rep.Fields, b.Slice(regex.Range{Start: start, End: region.End}))
	return nil
}
