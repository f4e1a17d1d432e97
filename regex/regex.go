package regex

import (
	"io"

	"github.com/charmbracelet/log"
)

// Regex wraps a master Pattern with forgiving, allocation-happy helpers.
// Each call works on its own clone, so a Regex is safe for concurrent use as
// long as it is not closed meanwhile. Failures are logged at debug level and
// turned into a neutral result.
type Regex struct {
	p      *Pattern
	logger *log.Logger
}

// New compiles text with the default engine.
func New(text string, opts Options) (*Regex, error) {
	p, err := Compile(text, opts)
	if err != nil {
		return nil, err
	}
	return FromPattern(p), nil
}

// MustNew is New with Default options that panics on error.
func MustNew(text string) *Regex { return FromPattern(MustCompile(text)) }

// FromPattern wraps p. The Regex takes ownership of p.
func FromPattern(p *Pattern) *Regex {
	return &Regex{p: p, logger: log.New(io.Discard)}
}

// WithLogger sets the logger failures are reported to.
func (r *Regex) WithLogger(l *log.Logger) *Regex {
	r.logger = l
	return r
}

func (r *Regex) Pattern() *Pattern { return r.p }

func (r *Regex) String() string { return r.p.String() }

func (r *Regex) matcher(s string) *Matcher {
	m, err := r.p.Matcher(s)
	if err != nil {
		r.logger.Debug("matcher unavailable", "pattern", r.p.String(), "err", err)
		return nil
	}
	return m
}

// MatchString reports whether all of s matches.
func (r *Regex) MatchString(s string) bool {
	m := r.matcher(s)
	if m == nil {
		return false
	}
	defer m.Close()
	ok, err := m.Matches()
	if err != nil {
		r.logger.Debug("match failed", "pattern", r.p.String(), "err", err)
		return false
	}
	return ok
}

// First returns the first match at or after from, or nil.
func (r *Regex) First(s string, from Index) *Match {
	m := r.matcher(s)
	if m == nil {
		return nil
	}
	defer m.Close()
	ok, err := m.FindAt(from)
	if err != nil || !ok {
		if err != nil {
			r.logger.Debug("find failed", "pattern", r.p.String(), "err", err)
		}
		return nil
	}
	match, err := m.Match()
	if err != nil {
		r.logger.Debug("snapshot failed", "pattern", r.p.String(), "err", err)
		return nil
	}
	return match
}

// All returns every match in s.
func (r *Regex) All(s string) []*Match {
	m := r.matcher(s)
	if m == nil {
		return nil
	}
	defer m.Close()
	var out []*Match
	for {
		ok, err := m.Find()
		if err != nil {
			r.logger.Debug("find failed", "pattern", r.p.String(), "err", err)
			return nil
		}
		if !ok {
			return out
		}
		match, err := m.Match()
		if err != nil {
			r.logger.Debug("snapshot failed", "pattern", r.p.String(), "err", err)
			return nil
		}
		out = append(out, match)
	}
}

// Replace substitutes template for every match. On error s is returned
// unchanged.
func (r *Regex) Replace(s, template string) string {
	m := r.matcher(s)
	if m == nil {
		return s
	}
	defer m.Close()
	var dst []byte
	for {
		ok, err := m.Find()
		if err != nil {
			r.logger.Debug("replace failed", "pattern", r.p.String(), "err", err)
			return s
		}
		if !ok {
			break
		}
		if dst, err = m.AppendReplacement(dst, template); err != nil {
			r.logger.Debug("replace failed", "pattern", r.p.String(), "template", template, "err", err)
			return s
		}
	}
	return string(m.AppendTail(dst))
}

// ReplaceFunc substitutes fn's result, verbatim, for each match. Replacement
// stops at the first match for which fn returns false; the rest of s is kept.
func (r *Regex) ReplaceFunc(s string, fn func(*Match) (string, bool)) string {
	m := r.matcher(s)
	if m == nil {
		return s
	}
	defer m.Close()
	var dst []byte
	for {
		ok, err := m.Find()
		if err != nil {
			r.logger.Debug("replace failed", "pattern", r.p.String(), "err", err)
			return s
		}
		if !ok {
			break
		}
		match, err := m.Match()
		if err != nil {
			r.logger.Debug("replace failed", "pattern", r.p.String(), "err", err)
			return s
		}
		text, keep := fn(match)
		if !keep {
			break
		}
		if dst, err = m.AppendLiteralReplacement(dst, text); err != nil {
			r.logger.Debug("replace failed", "pattern", r.p.String(), "err", err)
			return s
		}
	}
	return string(m.AppendTail(dst))
}

// Split slices s around matches. With limit > 0 at most limit fields are
// returned, the last holding the unsplit remainder. On error it returns an
// empty slice.
func (r *Regex) Split(s string, limit int) []string {
	m := r.matcher(s)
	if m == nil {
		return []string{}
	}
	defer m.Close()
	b := m.Bridge()
	var out []string
	start := b.Start()
	for limit <= 0 || len(out) < limit-1 {
		ok, err := m.Find()
		if err != nil {
			r.logger.Debug("split failed", "pattern", r.p.String(), "err", err)
			return []string{}
		}
		if !ok {
			break
		}
		mr, err := m.Range()
		if err != nil {
			r.logger.Debug("split failed", "pattern", r.p.String(), "err", err)
			return []string{}
		}
		out = append(out, b.Slice(Range{Start: start, End: mr.Start}))
		start = mr.End
	}
	return append(out, b.Slice(Range{Start: start, End: b.End()}))
}

// Close releases the master pattern.
func (r *Regex) Close() error { return r.p.Close() }
