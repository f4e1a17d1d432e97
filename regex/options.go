package regex

import (
	"github.com/dl/gorex/internal/engine"
	"github.com/dl/gorex/internal/position"
)

// Options is the compile flag bitset.
type Options = engine.Options

const (
	CaseInsensitive       = engine.CaseInsensitive
	Comments              = engine.Comments
	DotAll                = engine.DotAll
	Literal               = engine.Literal
	Multiline             = engine.Multiline
	UnixLines             = engine.UnixLines
	UnicodeWord           = engine.UnicodeWord
	ErrorOnUnknownEscapes = engine.ErrorOnUnknownEscapes

	// Default rejects unknown backslash escapes and nothing else.
	Default = engine.Default
)

// Engine selects the backend a Pattern compiles with.
type Engine = engine.Kind

const (
	PCRE    = engine.PCRE
	Regexp2 = engine.Regexp2
	RE2     = engine.RE2
	Coregex = engine.Coregex
)

// ParseEngine maps an engine name ("pcre", "regexp2", "re2", "coregex") to
// an Engine.
func ParseEngine(s string) (Engine, error) { return engine.ParseKind(s) }

// Positions in subject strings.
type (
	Index  = position.Index
	Range  = position.Range
	Unit   = position.Unit
	Bridge = position.Bridge
)

const (
	Byte     = position.Byte
	Rune     = position.Rune
	UTF16    = position.UTF16
	Grapheme = position.Grapheme
)

// NewBridge returns a position translator for s.
func NewBridge(s string) *Bridge { return position.NewBridge(s) }
