package search

import "bytes"

// line describes one line of a subject. end excludes the newline.
type line struct {
	num        int // 1-based
	start, end int
}

// lineCursor maps ascending byte offsets to lines. Offsets must be fed in
// non-decreasing order; nearby targets are reached by walking line by line,
// distant ones by counting newlines over the gap.
type lineCursor struct {
	data []byte
	cur  line
}

func newLineCursor(data []byte) *lineCursor {
	c := &lineCursor{data: data, cur: line{num: 1}}
	c.cur.end = c.endFrom(0)
	return c
}

func (c *lineCursor) endFrom(pos int) int {
	if i := bytes.IndexByte(c.data[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(c.data)
}

// at returns the line containing pos. An offset sitting on a newline belongs
// to the line that newline terminates.
func (c *lineCursor) at(pos int) line {
	if pos <= c.cur.end || c.cur.end == len(c.data) {
		return c.cur
	}
	if pos-c.cur.end <= 256 {
		for pos > c.cur.end && c.cur.end < len(c.data) {
			c.cur.start = c.cur.end + 1
			c.cur.num++
			c.cur.end = c.endFrom(c.cur.start)
		}
		return c.cur
	}
	gap := c.data[c.cur.end:pos]
	c.cur.num += bytes.Count(gap, []byte{'\n'})
	c.cur.start = c.cur.end + bytes.LastIndexByte(gap, '\n') + 1
	c.cur.end = c.endFrom(pos)
	return c.cur
}
