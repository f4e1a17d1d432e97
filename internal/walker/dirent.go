package walker

import (
	"bytes"
	"encoding/binary"
)

// d_type values from dirent.h.
const (
	DT_UNKNOWN = 0
	DT_DIR     = 4
	DT_REG     = 8
	DT_LNK     = 10
)

// linux_dirent64: d_ino (8) | d_off (8) | d_reclen (2) | d_type (1) | d_name
const (
	direntReclen = 16
	direntType   = 18
	direntName   = 19
)

// Dirent is one parsed directory entry.
type Dirent struct {
	Name string
	Type uint8
}

// ParseDirents decodes the first n bytes of a getdents64 buffer into dst[:0],
// dropping "." and "..".
func ParseDirents(buf []byte, n int, dst []Dirent) []Dirent {
	entries := dst[:0]
	for off := 0; off+direntName <= n; {
		reclen := int(binary.NativeEndian.Uint16(buf[off+direntReclen:]))
		if reclen == 0 {
			break
		}
		end := min(off+reclen, n)
		name := buf[off+direntName : end]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		if s := string(name); s != "." && s != ".." {
			entries = append(entries, Dirent{Name: s, Type: buf[off+direntType]})
		}
		off += reclen
	}
	return entries
}
