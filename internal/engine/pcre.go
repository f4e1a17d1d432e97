package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"go.elara.ws/pcre"
	"go.elara.ws/pcre/lib"
	"modernc.org/libc"

	"github.com/dl/gorex/internal/position"
)

// pcreProgram drives the translated PCRE2 library directly so that every
// search can start at an offset and see the text before it. Offsets are
// UTF-8 byte offsets.
type pcreProgram struct {
	code   uintptr // pcre2_code, read-only after compilation
	groups int
	names  []string

	mu     sync.Mutex
	idle   []*libc.TLS
	closed bool
}

var (
	sizeofSize = int(unsafe.Sizeof(lib.Tsize_t(0)))
	pcreUnset  = uint64(^lib.Tsize_t(0))

	// subject pointer for empty texts
	pcreEmpty [1]byte
)

func compilePCRE(pattern string, opts Options) (p *pcreProgram, err error) {
	defer recoverPanic("pcre compile", &err)
	src, opts := prepare(pattern, opts, pcreEscapes)

	prefix := "(*ANY)"
	if opts&UnixLines != 0 {
		prefix = "(*LF)"
	}
	flags := pcre.UTF
	if opts&CaseInsensitive != 0 {
		flags |= pcre.Caseless
	}
	if opts&Comments != 0 {
		flags |= pcre.Extended
	}
	if opts&DotAll != 0 {
		flags |= pcre.DotAll
	}
	if opts&Multiline != 0 {
		flags |= pcre.Multiline
	}
	if opts&UnicodeWord != 0 {
		flags |= pcre.UCP
	}

	tls := libc.NewTLS()
	defer tls.Close()

	full := prefix + src
	cpat, err := libc.CString(full)
	if err != nil {
		return nil, err
	}
	defer libc.Xfree(tls, cpat)

	// error code at +0, error offset at +8
	errBuf := tls.Alloc(16)
	defer tls.Free(16)
	code := lib.Xpcre2_compile_8(tls, cpat, lib.Tsize_t(len(full)), uint32(flags), errBuf, errBuf+8, 0)
	if code == 0 {
		raw := libc.GoBytes(errBuf, 16)
		rc := int32(binary.NativeEndian.Uint32(raw))
		off := int(readSize(raw[8:])) - len(prefix)
		return nil, &SyntaxError{Offset: min(max(off, 0), len(pattern)), Err: pcreError(tls, rc)}
	}

	p = &pcreProgram{code: code}
	p.groups = int(pcreInfo(tls, code, lib.DPCRE2_INFO_CAPTURECOUNT))
	p.names = pcreNames(tls, code, p.groups)
	return p, nil
}

// readSize decodes one PCRE2_SIZE value.
func readSize(b []byte) uint64 {
	if sizeofSize == 8 {
		return binary.NativeEndian.Uint64(b)
	}
	return uint64(binary.NativeEndian.Uint32(b))
}

func readPointer(p uintptr) uintptr {
	raw := libc.GoBytes(p, int(unsafe.Sizeof(p)))
	if len(raw) == 8 {
		return uintptr(binary.NativeEndian.Uint64(raw))
	}
	return uintptr(binary.NativeEndian.Uint32(raw))
}

// pcreInfo reads a uint32 pattern property.
func pcreInfo(tls *libc.TLS, code uintptr, what uint32) uint32 {
	out := tls.Alloc(8)
	defer tls.Free(8)
	if lib.Xpcre2_pattern_info_8(tls, code, what, out) < 0 {
		return 0
	}
	return binary.NativeEndian.Uint32(libc.GoBytes(out, 4))
}

// pcreNames decodes the name table. Each entry holds a big-endian group
// number followed by the NUL-terminated name.
func pcreNames(tls *libc.TLS, code uintptr, groups int) []string {
	names := make([]string, groups+1)
	count := int(pcreInfo(tls, code, lib.DPCRE2_INFO_NAMECOUNT))
	size := int(pcreInfo(tls, code, lib.DPCRE2_INFO_NAMEENTRYSIZE))
	if count == 0 || size < 3 {
		return names
	}
	out := tls.Alloc(8)
	defer tls.Free(8)
	if lib.Xpcre2_pattern_info_8(tls, code, lib.DPCRE2_INFO_NAMETABLE, out) < 0 {
		return names
	}
	table := libc.GoBytes(readPointer(out), count*size)
	for i := range count {
		entry := table[i*size : (i+1)*size]
		n := int(binary.BigEndian.Uint16(entry))
		name := entry[2:]
		if j := bytes.IndexByte(name, 0); j >= 0 {
			name = name[:j]
		}
		if n <= groups && names[n] == "" {
			names[n] = string(name)
		}
	}
	return names
}

func pcreError(tls *libc.TLS, rc int32) error {
	buf := tls.Alloc(256)
	defer tls.Free(256)
	n := lib.Xpcre2_get_error_message_8(tls, rc, buf, 256)
	if n < 0 {
		return fmt.Errorf("pcre error %d", rc)
	}
	return errors.New(string(libc.GoBytes(buf, int(n))))
}

// recoverPanic turns a panic inside library code into an error.
func recoverPanic(op string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s: %v", op, r)
	}
}

func (p *pcreProgram) Unit() position.Unit  { return position.Byte }
func (p *pcreProgram) GroupCount() int      { return p.groups }
func (p *pcreProgram) GroupNames() []string { return p.names }

func (p *pcreProgram) getTLS() (*libc.TLS, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if n := len(p.idle); n > 0 {
		tls := p.idle[n-1]
		p.idle = p.idle[:n-1]
		return tls, nil
	}
	return libc.NewTLS(), nil
}

func (p *pcreProgram) putTLS(tls *libc.TLS) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		tls.Close()
		return
	}
	p.idle = append(p.idle, tls)
}

// match runs pcre2_match once from start. It returns nil when nothing
// matches.
func (p *pcreProgram) match(b []byte, start int, options uint32) (loc []int, err error) {
	tls, err := p.getTLS()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			// the context may be unbalanced; drop it
			loc, err = nil, fmt.Errorf("pcre match: %v", r)
			return
		}
		p.putTLS(tls)
	}()

	md := lib.Xpcre2_match_data_create_from_pattern_8(tls, p.code, 0)
	if md == 0 {
		return nil, errors.New("pcre: cannot allocate match data")
	}
	defer lib.Xpcre2_match_data_free_8(tls, md)

	subject := uintptr(unsafe.Pointer(&pcreEmpty[0]))
	if len(b) > 0 {
		subject = uintptr(unsafe.Pointer(&b[0]))
	}
	rc := lib.Xpcre2_match_8(tls, p.code, subject, lib.Tsize_t(len(b)), lib.Tsize_t(start), options, md, 0)
	runtime.KeepAlive(b)
	if rc == lib.DPCRE2_ERROR_NOMATCH {
		return nil, nil
	}
	if rc < 0 {
		return nil, pcreError(tls, rc)
	}

	pairs := int(lib.Xpcre2_get_ovector_count_8(tls, md))
	ovec := libc.GoBytes(lib.Xpcre2_get_ovector_pointer_8(tls, md), 2*pairs*sizeofSize)
	loc = make([]int, 2*pairs)
	for i := range loc {
		v := readSize(ovec[i*sizeofSize:])
		if v == pcreUnset {
			loc[i] = -1
			continue
		}
		loc[i] = int(v)
	}
	return normalizeLoc(loc, p.groups, len(b)), nil
}

func (p *pcreProgram) FindAt(t Text, at int) ([]int, error) {
	return p.match(t.Bytes, at, 0)
}

func (p *pcreProgram) FindAll(t Text) ([][]int, error) { return seekAll(p, t) }

func (p *pcreProgram) MatchWhole(t Text) ([]int, error) {
	loc, err := p.match(t.Bytes, 0, lib.DPCRE2_ANCHORED|lib.DPCRE2_ENDANCHORED)
	if loc == nil || err != nil {
		return nil, err
	}
	return matchWholeLoc(loc, len(t.Bytes)), nil
}

// Close frees the compiled code and the idle thread contexts. It runs once;
// later calls do nothing.
func (p *pcreProgram) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	tls := libc.NewTLS()
	lib.Xpcre2_code_free_8(tls, p.code)
	tls.Close()
	p.code = 0
	for _, t := range p.idle {
		t.Close()
	}
	p.idle = nil
	return nil
}
