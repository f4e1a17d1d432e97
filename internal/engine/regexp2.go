package engine

import (
	"strconv"
	"sync"

	"github.com/dlclark/regexp2"

	"github.com/dl/gorex/internal/position"
)

// regexp2Program uses the .NET-syntax backtracking engine. It works on
// code points and can start a search at an offset, so it implements Seeker.
type regexp2Program struct {
	re      *regexp2.Regexp
	numbers []int // engine group number per facade group
	names   []string

	anchorOnce sync.Once
	anchored   *regexp2.Regexp
	anchorErr  error
	body       string
	flags      regexp2.RegexOptions
}

func compileRegexp2(pattern string, opts Options) (*regexp2Program, error) {
	src, opts := prepare(pattern, opts, regexp2Escapes)

	flags := regexp2.None
	if opts&CaseInsensitive != 0 {
		flags |= regexp2.IgnoreCase
	}
	if opts&Comments != 0 {
		flags |= regexp2.IgnorePatternWhitespace
	}
	if opts&DotAll != 0 {
		flags |= regexp2.Singleline
	}
	if opts&Multiline != 0 {
		flags |= regexp2.Multiline
	}

	re, err := regexp2.Compile(src, flags)
	if err != nil {
		return nil, &SyntaxError{Offset: -1, Err: err}
	}
	p := &regexp2Program{
		re:      re,
		numbers: re.GetGroupNumbers(),
		body:    src,
		flags:   flags,
	}
	p.names = make([]string, len(p.numbers))
	for i, name := range re.GetGroupNames() {
		if i < len(p.names) && name != strconv.Itoa(p.numbers[i]) {
			p.names[i] = name
		}
	}
	if opts&Comments != 0 {
		p.body += "\n"
	}
	return p, nil
}

func (p *regexp2Program) Unit() position.Unit  { return position.Rune }
func (p *regexp2Program) GroupCount() int      { return len(p.numbers) - 1 }
func (p *regexp2Program) GroupNames() []string { return p.names }

func (p *regexp2Program) loc(m *regexp2.Match) []int {
	loc := make([]int, 2*len(p.numbers))
	for i, num := range p.numbers {
		g := m.GroupByNumber(num)
		if g == nil || len(g.Captures) == 0 {
			loc[2*i], loc[2*i+1] = -1, -1
			continue
		}
		loc[2*i], loc[2*i+1] = g.Index, g.Index+g.Length
	}
	return loc
}

func (p *regexp2Program) FindAll(t Text) ([][]int, error) { return seekAll(p, t) }

func (p *regexp2Program) FindAt(t Text, at int) ([]int, error) {
	m, err := p.re.FindRunesMatchStartingAt(t.Runes, at)
	if err != nil || m == nil {
		return nil, err
	}
	return p.loc(m), nil
}

func (p *regexp2Program) MatchWhole(t Text) ([]int, error) {
	p.anchorOnce.Do(func() {
		p.anchored, p.anchorErr = regexp2.Compile(`\A(?:`+p.body+`)\z`, p.flags)
	})
	if p.anchorErr != nil {
		return nil, p.anchorErr
	}
	m, err := p.anchored.FindRunesMatch(t.Runes)
	if err != nil || m == nil {
		return nil, err
	}
	return matchWholeLoc(p.loc(m), len(t.Runes)), nil
}

// Close is a no-op; the engine holds no native resources.
func (p *regexp2Program) Close() error { return nil }
