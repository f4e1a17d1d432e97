package engine

import (
	"regexp/syntax"
	"sync"

	"github.com/coregx/coregex"

	"github.com/dl/gorex/internal/position"
)

// coregexProgram uses coregex, an RE2-syntax engine with literal prefilters.
// Offsets are UTF-8 byte offsets.
type coregexProgram struct {
	re *coregex.Regex

	anchorOnce sync.Once
	anchored   *coregex.Regex
	anchorErr  error
	flags      string
	body       string
}

// compileCoregex compiles pattern with coregex. Patterns that can match the
// empty string or test word boundaries run on the standard library instead:
// coregex v0.10 misplaces such matches and can fault on non-ASCII text.
func compileCoregex(pattern string, opts Options) (Program, error) {
	src, popts := prepare(pattern, opts, re2Escapes)
	flags, err := re2Flags(Coregex, popts)
	if err != nil {
		return nil, err
	}
	if re, perr := syntax.Parse(flags+src, syntax.Perl); perr == nil && zeroWidth(re) {
		return compileRE2(pattern, opts)
	}
	re, err := coregex.Compile(flags + src)
	if err != nil {
		return nil, &SyntaxError{Offset: re2ErrorOffset(err, pattern), Err: err}
	}
	return &coregexProgram{re: re, flags: flags, body: src}, nil
}

// zeroWidth reports whether re can match the empty string somewhere or
// contains a word-boundary assertion.
func zeroWidth(re *syntax.Regexp) bool {
	if hasWordBoundary(re) {
		return true
	}
	return nullable(re)
}

func hasWordBoundary(re *syntax.Regexp) bool {
	if re.Op == syntax.OpWordBoundary || re.Op == syntax.OpNoWordBoundary {
		return true
	}
	for _, sub := range re.Sub {
		if hasWordBoundary(sub) {
			return true
		}
	}
	return false
}

func nullable(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText, syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpRepeat:
		return re.Min == 0 || nullable(re.Sub[0])
	case syntax.OpPlus, syntax.OpCapture:
		return nullable(re.Sub[0])
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !nullable(sub) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if nullable(sub) {
				return true
			}
		}
	}
	return false
}

func (p *coregexProgram) Unit() position.Unit  { return position.Byte }
func (p *coregexProgram) GroupCount() int      { return len(p.re.SubexpNames()) - 1 }
func (p *coregexProgram) GroupNames() []string { return p.re.SubexpNames() }

func (p *coregexProgram) FindAll(t Text) (out [][]int, err error) {
	defer recoverPanic("coregex", &err)
	locs := p.re.FindAllSubmatchIndex(t.Bytes, -1)
	out = make([][]int, 0, len(locs))
	for _, loc := range locs {
		out = append(out, normalizeLoc(loc, p.GroupCount(), len(t.Bytes)))
	}
	return out, nil
}

func (p *coregexProgram) MatchWhole(t Text) (loc []int, err error) {
	defer recoverPanic("coregex", &err)
	p.anchorOnce.Do(func() {
		p.anchored, p.anchorErr = coregex.Compile(p.flags + `\A(?:` + p.body + `)\z`)
	})
	if p.anchorErr != nil {
		return nil, p.anchorErr
	}
	loc = p.anchored.FindSubmatchIndex(t.Bytes)
	if loc == nil {
		return nil, nil
	}
	return matchWholeLoc(normalizeLoc(loc, p.GroupCount(), len(t.Bytes)), len(t.Bytes)), nil
}

func (p *coregexProgram) Close() error { return nil }
