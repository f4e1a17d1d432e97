package engine

import (
	"fmt"
	"sort"

	"github.com/dl/gorex/internal/position"
)

// Handle is one owner's view of a shared Program: the bound subject, the
// region, and the current match. It is not safe for concurrent use; clone it
// instead.
type Handle struct {
	sh     *shared
	seeker Seeker
	closed bool

	text   Text
	lo, hi int

	// pending is where the next FindNext starts when no walk is active.
	pending int
	walking bool

	// list walk for programs without Seeker
	region     [][]int // successive matches from lo, computed once per region
	haveRegion bool
	locs       [][]int
	next       int

	// seek walk
	pos int

	cur    []int
	hitEnd bool
}

func newHandle(sh *shared) *Handle {
	h := &Handle{sh: sh}
	h.seeker, _ = sh.prog.(Seeker)
	return h
}

func (h *Handle) check() error {
	if h.closed {
		return ErrClosed
	}
	return nil
}

// Unit is the code unit of every offset this handle accepts and returns.
func (h *Handle) Unit() position.Unit { return h.sh.prog.Unit() }

func (h *Handle) GroupCount() int { return h.sh.prog.GroupCount() }

func (h *Handle) GroupNames() []string { return h.sh.prog.GroupNames() }

// GroupNumber resolves a named group.
func (h *Handle) GroupNumber(name string) (int, error) {
	if err := h.check(); err != nil {
		return 0, err
	}
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrNoGroup)
	}
	for i, n := range h.sh.prog.GroupNames() {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNoGroup, name)
}

// Clone returns an independent handle on the same program, bound to the same
// subject and region with no current match.
func (h *Handle) Clone() (*Handle, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	h.sh.acquire()
	c := newHandle(h.sh)
	c.text, c.lo, c.hi = h.text, h.lo, h.hi
	c.reset(h.lo)
	return c, nil
}

// Close releases the handle. The program is released with its last handle.
func (h *Handle) Close() error {
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	h.text, h.region, h.locs, h.cur = Text{}, nil, nil, nil
	return h.sh.release()
}

// Closed reports whether Close has been called.
func (h *Handle) Closed() bool { return h.closed }

// SetSubject binds t; the region becomes the whole text.
func (h *Handle) SetSubject(t Text) error {
	if err := h.check(); err != nil {
		return err
	}
	h.text, h.lo, h.hi = t, 0, t.Len()
	h.region, h.haveRegion = nil, false
	h.reset(0)
	return nil
}

// SetRegion confines matching to [lo, hi).
func (h *Handle) SetRegion(lo, hi int) error {
	if err := h.check(); err != nil {
		return err
	}
	if lo < 0 || hi < lo || hi > h.text.Len() {
		return fmt.Errorf("%w: region [%d,%d) of %d", ErrOutOfRange, lo, hi, h.text.Len())
	}
	h.lo, h.hi = lo, hi
	h.region, h.haveRegion = nil, false
	h.reset(lo)
	return nil
}

// Region returns the current region bounds.
func (h *Handle) Region() (lo, hi int) { return h.lo, h.hi }

// Reset drops the current match; the next FindNext starts at at.
func (h *Handle) Reset(at int) error {
	if err := h.check(); err != nil {
		return err
	}
	if at < h.lo || at > h.hi {
		return fmt.Errorf("%w: %d outside region [%d,%d)", ErrOutOfRange, at, h.lo, h.hi)
	}
	h.reset(at)
	return nil
}

func (h *Handle) reset(at int) {
	h.pending = at
	h.walking = false
	h.locs, h.next = nil, 0
	h.cur = nil
	h.hitEnd = false
}

// MatchesWholeRegion reports whether the entire region matches.
func (h *Handle) MatchesWholeRegion() (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	loc, err := h.sh.prog.MatchWhole(h.text.Slice(h.lo, h.hi))
	if err != nil {
		return false, err
	}
	h.walking = false
	if loc == nil {
		h.cur, h.hitEnd, h.pending = nil, false, h.lo
		return false, nil
	}
	h.cur = shift(loc, h.lo)
	h.hitEnd = true
	h.pending = h.hi
	return true, nil
}

// FindNext continues the search after the current match, or from the reset
// position when there is none.
func (h *Handle) FindNext() (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	if !h.walking {
		if err := h.seek(h.pending); err != nil {
			return false, err
		}
	}
	return h.advance()
}

// FindFrom restarts the search at offset at.
func (h *Handle) FindFrom(at int) (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	if at < h.lo || at > h.hi {
		return false, fmt.Errorf("%w: %d outside region [%d,%d)", ErrOutOfRange, at, h.lo, h.hi)
	}
	if err := h.seek(at); err != nil {
		return false, err
	}
	return h.advance()
}

// HitEnd reports whether the last search touched the end of the region.
func (h *Handle) HitEnd() (bool, error) {
	if err := h.check(); err != nil {
		return false, err
	}
	return h.hitEnd, nil
}

// Loc returns a copy of the current match locations.
func (h *Handle) Loc() ([]int, error) {
	if err := h.check(); err != nil {
		return nil, err
	}
	if h.cur == nil {
		return nil, ErrNoMatch
	}
	return append([]int(nil), h.cur...), nil
}

// GroupStart returns the start of group n, or -1 if it did not participate.
func (h *Handle) GroupStart(n int) (int, error) {
	if err := h.group(n); err != nil {
		return 0, err
	}
	return h.cur[2*n], nil
}

// GroupEnd returns the end of group n, or -1 if it did not participate.
func (h *Handle) GroupEnd(n int) (int, error) {
	if err := h.group(n); err != nil {
		return 0, err
	}
	return h.cur[2*n+1], nil
}

func (h *Handle) group(n int) error {
	if err := h.check(); err != nil {
		return err
	}
	if h.cur == nil {
		return ErrNoMatch
	}
	if n < 0 || n > h.GroupCount() {
		return fmt.Errorf("%w: group %d of %d", ErrOutOfRange, n, h.GroupCount())
	}
	return nil
}

func (h *Handle) seek(from int) error {
	h.walking = true
	h.locs, h.next = nil, 0
	if h.seeker != nil {
		h.pos = from
		return nil
	}
	if !h.haveRegion {
		locs, err := h.findAll(h.lo)
		if err != nil {
			h.walking = false
			return err
		}
		h.region, h.haveRegion = locs, true
	}
	locs := h.region
	k := sort.Search(len(locs), func(i int) bool { return locs[i][0] >= from })
	if k > 0 && locs[k-1][1] > from {
		// A region match straddles from; search the suffix on its own.
		fresh, err := h.findAll(from)
		if err != nil {
			h.walking = false
			return err
		}
		h.locs = fresh
		return nil
	}
	h.locs, h.next = locs, k
	return nil
}

func (h *Handle) findAll(from int) ([][]int, error) {
	locs, err := h.sh.prog.FindAll(h.text.Slice(from, h.hi))
	if err != nil {
		return nil, err
	}
	for i, loc := range locs {
		locs[i] = shift(loc, from)
	}
	return locs, nil
}

func (h *Handle) step() ([]int, error) {
	if h.seeker == nil {
		if h.next >= len(h.locs) {
			return nil, nil
		}
		loc := h.locs[h.next]
		h.next++
		return loc, nil
	}
	if h.pos > h.hi {
		return nil, nil
	}
	text := h.text.Slice(h.lo, h.hi)
	loc, err := h.seeker.FindAt(text, h.pos-h.lo)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		h.pos = h.hi + 1
		return nil, nil
	}
	h.pos = h.lo + nextStart(text, loc)
	return shift(loc, h.lo), nil
}

func (h *Handle) advance() (bool, error) {
	loc, err := h.step()
	if err != nil {
		h.cur = nil
		return false, err
	}
	if loc == nil {
		h.cur, h.hitEnd = nil, true
		return false, nil
	}
	h.cur = loc
	h.hitEnd = loc[1] == h.hi
	return true, nil
}

func shift(loc []int, by int) []int {
	out := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			out[i] = -1
			continue
		}
		out[i] = v + by
	}
	return out
}
