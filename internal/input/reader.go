// Package input loads subjects into memory.
package input

import "errors"

// ErrTooLarge is returned for files over a reader's size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// ReadResult holds the data read from a file. Release hands the buffer back;
// Data must not be used afterwards.
type ReadResult struct {
	Data    []byte
	Release func()
}

func noRelease() {}

// Reader reads file content into a byte slice.
type Reader interface {
	Read(path string) (ReadResult, error)
}
