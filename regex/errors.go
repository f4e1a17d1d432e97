package regex

import (
	"errors"
	"fmt"

	"github.com/dl/gorex/internal/engine"
	"github.com/dl/gorex/internal/position"
)

// ErrorCode classifies an EngineError.
type ErrorCode int

const (
	CodeInternal ErrorCode = iota
	CodeIndexOutOfBounds
	CodeInvalidState
	CodeUnsupportedOption
	CodeClosed
)

func (c ErrorCode) String() string {
	switch c {
	case CodeIndexOutOfBounds:
		return "index out of bounds"
	case CodeInvalidState:
		return "invalid state"
	case CodeUnsupportedOption:
		return "unsupported option"
	case CodeClosed:
		return "closed"
	}
	return "internal error"
}

// EngineError is a failure reported by, or on the way to, the engine.
// errors.Is matches any EngineError with the same Code.
type EngineError struct {
	Code ErrorCode
	Err  error
}

func (e *EngineError) Error() string {
	if e.Err == nil {
		return "regex: " + e.Code.String()
	}
	return fmt.Sprintf("regex: %s: %v", e.Code, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Code == e.Code
}

var (
	// ErrNoActiveMatch is returned by match-dependent operations when the
	// last search failed or none has run.
	ErrNoActiveMatch = &EngineError{Code: CodeInvalidState, Err: errors.New("no active match")}
	// ErrClosed is returned by every operation on a closed Pattern or Matcher.
	ErrClosed = &EngineError{Code: CodeClosed}
	// ErrIndexOutOfBounds matches position and group-number errors.
	ErrIndexOutOfBounds = &EngineError{Code: CodeIndexOutOfBounds}
	// ErrNoWorker is returned by Cache.Get when the context carries no worker id.
	ErrNoWorker = errors.New("regex: context carries no worker id")
)

// PatternSyntaxError reports a pattern the engine rejected. Line is 1-based;
// Offset is the 0-based UTF-16 offset within that line.
type PatternSyntaxError struct {
	Pattern string
	Line    int
	Offset  int
	Err     error
}

func (e *PatternSyntaxError) Error() string {
	return fmt.Sprintf("regex: invalid pattern %q at line %d, offset %d: %v", e.Pattern, e.Line, e.Offset, e.Err)
}

func (e *PatternSyntaxError) Unwrap() error { return e.Err }

// UnknownGroupNameError reports a capture-group name the pattern does not define.
type UnknownGroupNameError struct {
	Name string
}

func (e *UnknownGroupNameError) Error() string {
	return fmt.Sprintf("regex: unknown capture group name %q", e.Name)
}

// InvalidGroupReferenceError reports a malformed group reference in a
// replacement template. Pos is the byte offset of the offending '$'.
type InvalidGroupReferenceError struct {
	Template string
	Pos      int
	Reason   string
}

func (e *InvalidGroupReferenceError) Error() string {
	return fmt.Sprintf("regex: invalid group reference at %d in %q: %s", e.Pos, e.Template, e.Reason)
}

// wrapErr maps engine and position errors onto the public taxonomy.
func wrapErr(err error) error {
	var (
		ee *EngineError
		ue *engine.UnsupportedError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ee):
		return err
	case errors.Is(err, engine.ErrClosed):
		return &EngineError{Code: CodeClosed, Err: err}
	case errors.Is(err, engine.ErrNoMatch):
		return ErrNoActiveMatch
	case errors.Is(err, engine.ErrOutOfRange),
		errors.Is(err, position.ErrOutOfRange),
		errors.Is(err, position.ErrSplitsCodePoint),
		errors.Is(err, position.ErrNotBoundary):
		return &EngineError{Code: CodeIndexOutOfBounds, Err: err}
	case errors.As(err, &ue):
		return &EngineError{Code: CodeUnsupportedOption, Err: err}
	}
	return &EngineError{Code: CodeInternal, Err: err}
}

// compileErr turns a compile failure into a PatternSyntaxError or EngineError.
func compileErr(pattern string, err error) error {
	var se *engine.SyntaxError
	if !errors.As(err, &se) {
		return wrapErr(err)
	}
	line, offset := locate(pattern, se.Offset)
	return &PatternSyntaxError{Pattern: pattern, Line: line, Offset: offset, Err: se.Err}
}

// locate converts a byte offset into the pattern to a line and a UTF-16
// offset within that line. Unknown offsets point at the start.
func locate(pattern string, off int) (line, offset int) {
	b := position.NewBridge(pattern)
	at, err := b.Index(off, position.Byte)
	if err != nil {
		at = b.Start()
	}
	line = 1
	lineStart := b.Start()
	for i, r := range pattern {
		idx := b.MustIndex(i, position.Byte)
		if !idx.Before(at) {
			break
		}
		if r == '\n' {
			line++
			lineStart = b.MustIndex(i+1, position.Byte)
		}
	}
	start, _ := b.Offset(lineStart, position.UTF16)
	end, _ := b.Offset(at, position.UTF16)
	return line, end - start
}
