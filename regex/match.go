package regex

import (
	"fmt"

	"github.com/dl/gorex/internal/position"
)

// Group is one capture group of a Match. A group that did not take part in
// the match has Matched() == false and an empty String.
type Group struct {
	bridge  *position.Bridge
	r       position.Range
	matched bool
}

func (g Group) Matched() bool { return g.matched }

// Range is the captured span; the zero Range when the group is unset.
func (g Group) Range() Range { return g.r }

func (g Group) String() string {
	if !g.matched {
		return ""
	}
	return g.bridge.Slice(g.r)
}

// Span returns the captured span as offsets in unit u.
func (g Group) Span(u Unit) (start, end int, err error) {
	if !g.matched {
		return -1, -1, nil
	}
	start, end, err = g.bridge.Span(g.r, u)
	return start, end, wrapErr(err)
}

// Match is an immutable snapshot of one successful search. It stays valid
// after the Matcher moves on and may be shared between goroutines.
type Match struct {
	bridge *position.Bridge
	names  []string
	groups []Group // groups[0] is the whole match
}

// Subject is the string that was searched.
func (m *Match) Subject() string { return m.bridge.Text() }

// Bridge translates positions of the subject.
func (m *Match) Bridge() *Bridge { return m.bridge }

func (m *Match) Range() Range   { return m.groups[0].r }
func (m *Match) String() string { return m.groups[0].String() }

// Span returns the whole match as offsets in unit u.
func (m *Match) Span(u Unit) (start, end int, err error) { return m.groups[0].Span(u) }

// GroupCount is the number of capture groups, group 0 excluded.
func (m *Match) GroupCount() int { return len(m.groups) - 1 }

// Group returns group n; group 0 is the whole match.
func (m *Match) Group(n int) (Group, error) {
	if n < 0 || n >= len(m.groups) {
		return Group{}, &EngineError{
			Code: CodeIndexOutOfBounds,
			Err:  fmt.Errorf("group %d of %d", n, m.GroupCount()),
		}
	}
	return m.groups[n], nil
}

// GroupByName returns the named group.
func (m *Match) GroupByName(name string) (Group, error) {
	n, err := m.lookup(name)
	if err != nil {
		return Group{}, err
	}
	return m.groups[n], nil
}

// Groups returns all groups, the whole match first.
func (m *Match) Groups() []Group { return append([]Group(nil), m.groups...) }

func (m *Match) lookup(name string) (int, error) {
	if name != "" {
		for i, n := range m.names {
			if n == name {
				return i, nil
			}
		}
	}
	return 0, &UnknownGroupNameError{Name: name}
}
