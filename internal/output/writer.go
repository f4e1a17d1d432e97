package output

import "golang.org/x/sys/unix"

// Writer writes formatted output to a file descriptor, using writev for batching.
type Writer struct {
	fd   int
	iovs [][]byte
}

// NewWriter creates a Writer on fd.
func NewWriter(fd int) *Writer {
	return &Writer{fd: fd}
}

// Write writes all of the given buffers with as few writev calls as possible.
func (w *Writer) Write(bufs ...[]byte) error {
	w.iovs = w.iovs[:0]
	for _, b := range bufs {
		if len(b) > 0 {
			w.iovs = append(w.iovs, b)
		}
	}
	for len(w.iovs) > 0 {
		n, err := unix.Writev(w.fd, w.iovs)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		for n > 0 && len(w.iovs) > 0 {
			if n < len(w.iovs[0]) {
				w.iovs[0] = w.iovs[0][n:]
				break
			}
			n -= len(w.iovs[0])
			w.iovs = w.iovs[1:]
		}
	}
	return nil
}

// OrderedWriter receives results from a channel and writes them in sequence order.
// This ensures output is deterministic even with parallel workers.
type OrderedWriter struct {
	writer    *Writer
	formatter Formatter
	multiFile bool
	buf       []byte
}

// NewOrderedWriter creates an OrderedWriter.
func NewOrderedWriter(w *Writer, f Formatter, multiFile bool) *OrderedWriter {
	return &OrderedWriter{
		writer:    w,
		formatter: f,
		multiFile: multiFile,
	}
}

// WriteOrdered consumes results from the channel, buffering out-of-order
// results, and hands them to visit in sequence-number order starting at 1.
// Results visit rejects, and failed results, are not written. The channel is
// drained even after a write error; the first error is returned.
func (ow *OrderedWriter) WriteOrdered(results <-chan Result, visit func(Result) bool) error {
	nextSeq := 1
	pending := make(map[int]Result)
	var firstErr error

	emit := func(r Result) {
		if visit != nil && !visit(r) {
			return
		}
		if r.Err != nil || firstErr != nil {
			return
		}
		ow.buf = ow.formatter.Format(ow.buf[:0], r, ow.multiFile)
		if err := ow.writer.Write(ow.buf); err != nil {
			firstErr = err
		}
	}

	for r := range results {
		if r.SeqNum != nextSeq {
			pending[r.SeqNum] = r
			continue
		}
		emit(r)
		nextSeq++
		for {
			p, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			emit(p)
			nextSeq++
		}
	}
	return firstErr
}
