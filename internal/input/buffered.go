package input

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// bufPool pools read buffers. Buffers are stored as *[]byte so a grown
// backing array goes back into the pool.
var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 64*1024)
		return &b
	},
}

// BufferedReader reads whole files with pread into pooled buffers.
type BufferedReader struct {
	maxSize int64
}

// NewBufferedReader creates a BufferedReader. Files larger than maxSize bytes
// are refused with ErrTooLarge; maxSize <= 0 means no limit.
func NewBufferedReader(maxSize int64) *BufferedReader {
	return &BufferedReader{maxSize: maxSize}
}

func (r *BufferedReader) Read(path string) (ReadResult, error) {
	fd, err := openFile(path)
	if err != nil {
		return ReadResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return ReadResult{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		return ReadResult{}, fmt.Errorf("read %s: not a regular file", path)
	}
	if r.maxSize > 0 && stat.Size > r.maxSize {
		return ReadResult{}, fmt.Errorf("read %s: %w (%d > %d bytes)", path, ErrTooLarge, stat.Size, r.maxSize)
	}
	if stat.Size == 0 {
		return ReadResult{Release: noRelease}, nil
	}

	bp := bufPool.Get().(*[]byte)
	buf := *bp
	if int64(cap(buf)) < stat.Size {
		buf = make([]byte, stat.Size)
	} else {
		buf = buf[:stat.Size]
	}
	release := func() {
		*bp = buf[:0]
		bufPool.Put(bp)
	}

	total := 0
	for total < len(buf) {
		n, err := unix.Pread(fd, buf[total:], int64(total))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			release()
			return ReadResult{}, fmt.Errorf("read %s: %w", path, err)
		}
		if n == 0 {
			break
		}
		total += n
	}
	return ReadResult{Data: buf[:total], Release: release}, nil
}

// openFile opens a file with O_NOATIME, falling back without it.
func openFile(path string) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NOATIME|unix.O_CLOEXEC, 0)
	if err != nil {
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}
	return fd, err
}
