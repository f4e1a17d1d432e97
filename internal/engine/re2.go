package engine

import (
	"errors"
	"regexp"
	"regexp/syntax"
	"strings"
	"sync"

	"github.com/dl/gorex/internal/position"
)

// re2Program uses the standard library's RE2 engine: linear time, no
// backreferences or lookaround, UTF-8 byte offsets.
type re2Program struct {
	re *regexp.Regexp

	anchorOnce sync.Once
	anchored   *regexp.Regexp
	anchorErr  error
	flags      string
	body       string
}

// re2Flags maps options onto inline flags shared by both RE2-syntax backends.
func re2Flags(kind Kind, opts Options) (string, error) {
	if opts&Comments != 0 {
		return "", &UnsupportedError{Kind: kind, Option: Comments}
	}
	if opts&UnicodeWord != 0 {
		return "", &UnsupportedError{Kind: kind, Option: UnicodeWord}
	}
	flags := ""
	if opts&CaseInsensitive != 0 {
		flags += "i"
	}
	if opts&DotAll != 0 {
		flags += "s"
	}
	if opts&Multiline != 0 {
		flags += "m"
	}
	if flags == "" {
		return "", nil
	}
	return "(?" + flags + ")", nil
}

// re2ErrorOffset locates the failing expression inside the caller's pattern.
func re2ErrorOffset(err error, pattern string) int {
	var se *syntax.Error
	if !errors.As(err, &se) || se.Expr == "" {
		return -1
	}
	if i := strings.Index(pattern, se.Expr); i >= 0 && se.Expr != pattern {
		return i
	}
	return -1
}

func compileRE2(pattern string, opts Options) (*re2Program, error) {
	src, opts := prepare(pattern, opts, re2Escapes)
	flags, err := re2Flags(RE2, opts)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(flags + src)
	if err != nil {
		return nil, &SyntaxError{Offset: re2ErrorOffset(err, pattern), Err: err}
	}
	return &re2Program{re: re, flags: flags, body: src}, nil
}

func (p *re2Program) Unit() position.Unit  { return position.Byte }
func (p *re2Program) GroupCount() int      { return p.re.NumSubexp() }
func (p *re2Program) GroupNames() []string { return p.re.SubexpNames() }

func (p *re2Program) FindAll(t Text) ([][]int, error) {
	locs := p.re.FindAllSubmatchIndex(t.Bytes, -1)
	for i, loc := range locs {
		locs[i] = normalizeLoc(loc, p.GroupCount(), len(t.Bytes))
	}
	return locs, nil
}

func (p *re2Program) MatchWhole(t Text) ([]int, error) {
	p.anchorOnce.Do(func() {
		p.anchored, p.anchorErr = regexp.Compile(p.flags + `\A(?:` + p.body + `)\z`)
	})
	if p.anchorErr != nil {
		return nil, p.anchorErr
	}
	loc := p.anchored.FindSubmatchIndex(t.Bytes)
	if loc == nil {
		return nil, nil
	}
	return matchWholeLoc(normalizeLoc(loc, p.GroupCount(), len(t.Bytes)), len(t.Bytes)), nil
}

func (p *re2Program) Close() error { return nil }
