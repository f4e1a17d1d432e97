// Package regex is a string-position-aware facade over several regular
// expression engines.
//
// Engines report match boundaries in their own code unit (UTF-8 bytes for
// PCRE, RE2 and coregex, code points for regexp2). This package translates
// those offsets into validated Index values of the subject string, which can
// in turn be read as byte, code point, UTF-16 or grapheme cluster offsets
// through a Bridge. Offsets that would split a code point are rejected.
//
// A Pattern or Matcher is not safe for concurrent use. Clone one per
// goroutine, or let a Cache hand out a clone per worker.
package regex

import (
	"fmt"

	"github.com/dl/gorex/internal/engine"
)

// Pattern is a compiled regular expression bound to one engine handle.
type Pattern struct {
	text string
	opts Options
	kind Engine
	h    *engine.Handle
}

// Compile compiles text with the default engine (PCRE).
func Compile(text string, opts Options) (*Pattern, error) {
	return CompileEngine(PCRE, text, opts)
}

// CompileEngine compiles text with the given engine.
func CompileEngine(kind Engine, text string, opts Options) (*Pattern, error) {
	h, err := engine.Compile(kind, text, opts)
	if err != nil {
		return nil, compileErr(text, err)
	}
	return &Pattern{text: text, opts: opts, kind: kind, h: h}, nil
}

// MustCompile is Compile with Default options that panics on error.
func MustCompile(text string) *Pattern {
	p, err := Compile(text, Default)
	if err != nil {
		panic(fmt.Sprintf("regex: Compile(%q): %v", text, err))
	}
	return p
}

func (p *Pattern) String() string   { return p.text }
func (p *Pattern) Options() Options { return p.opts }
func (p *Pattern) Engine() Engine   { return p.kind }

// GroupCount is the number of capture groups, group 0 excluded.
func (p *Pattern) GroupCount() int { return p.h.GroupCount() }

// GroupNames is indexed by group number; unnamed groups are "".
func (p *Pattern) GroupNames() []string {
	return append([]string(nil), p.h.GroupNames()...)
}

// GroupNumber resolves a named capture group.
func (p *Pattern) GroupNumber(name string) (int, error) {
	if p.h.Closed() {
		return 0, wrapErr(engine.ErrClosed)
	}
	n, err := p.h.GroupNumber(name)
	if err != nil {
		return 0, &UnknownGroupNameError{Name: name}
	}
	return n, nil
}

// Clone returns an independent Pattern sharing the compiled program.
func (p *Pattern) Clone() (*Pattern, error) {
	h, err := p.h.Clone()
	if err != nil {
		return nil, wrapErr(err)
	}
	return &Pattern{text: p.text, opts: p.opts, kind: p.kind, h: h}, nil
}

// Matcher clones p and binds the clone to subject. The Matcher owns the
// clone; closing it leaves p open.
func (p *Pattern) Matcher(subject string) (*Matcher, error) {
	c, err := p.Clone()
	if err != nil {
		return nil, err
	}
	m, err := newMatcher(c, subject)
	if err != nil {
		c.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the engine handle. Closing twice returns ErrClosed.
func (p *Pattern) Close() error {
	return wrapErr(p.h.Close())
}

// lookup resolves names for template parsing.
func (p *Pattern) lookup(name string) (int, error) { return p.GroupNumber(name) }
