package walker

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

var errIsDir = errors.New("is a directory (use -r to search it)")

// IsBinary reports whether data looks binary: a NUL byte in the first 8KB,
// or a prefix that is not valid UTF-8. Subjects are searched as text, so
// either makes the file unsuitable.
func IsBinary(data []byte) bool {
	limit := 8192
	if len(data) < limit {
		limit = len(data)
	}
	head := data[:limit]
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	// a sequence cut at the 8KB boundary is not evidence of binary content
	for i := 0; i < utf8.UTFMax && len(head) > 0 && !utf8.Valid(head); i++ {
		if limit == len(data) {
			return true
		}
		head = head[:len(head)-1]
	}
	return !utf8.Valid(head)
}

// IsBinaryExtension reports whether name has an extension of a known binary
// format, including versioned shared libraries like "libfoo.so.1.2.3".
func IsBinaryExtension(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return false
	}
	ext := name[dot:]
	if len(ext) == 2 {
		switch ext[1] {
		case 'a', 'o', 'z':
			return true
		}
	}
	if _, ok := binaryExts[ext]; ok {
		return true
	}
	return strings.Contains(name, ".so.")
}

// binaryExts lists extensions of formats that are never searched as text.
var binaryExts = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, group := range []string{
		".so .dylib .dll .exe .bin .elf .class .pyc .pyo .wasm",
		".gz .bz2 .xz .zst .lz4 .lzo .zip .tar .rar .7z .cab .deb .rpm .jar .war",
		".png .jpg .jpeg .gif .bmp .ico .tif .tiff .webp .psd .xcf",
		".mp3 .mp4 .ogg .flac .wav .avi .mkv .webm .mov .wmv",
		".ttf .otf .woff .woff2 .eot",
		".pdf .doc .docx .xls .xlsx .ppt .pptx .odt",
		".db .sqlite .mdb .swp .swo",
	} {
		for _, ext := range strings.Fields(group) {
			m[ext] = struct{}{}
		}
	}
	return m
}()
