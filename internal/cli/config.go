package cli

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/dl/gorex/internal/position"
	"github.com/dl/gorex/internal/search"
	"github.com/dl/gorex/regex"
)

// ColorMode controls when colored output is used.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // color when stdout is a terminal
	ColorAlways                  // always use color
	ColorNever                   // never use color
)

func parseColorMode(s string) (ColorMode, error) {
	switch s {
	case "auto", "":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return 0, fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
}

// Config holds all configuration for one gorex command.
type Config struct {
	Mode     search.Mode
	Pattern  string
	Template string
	Paths    []string

	// pattern options
	IgnoreCase     bool
	Extended       bool
	DotAll         bool
	Multiline      bool
	Fixed          bool
	UnixLines      bool
	UnicodeWord    bool
	LenientEscapes bool
	Engine         string

	// search
	Unit    string
	Region  string
	Limit   int
	Literal bool
	Write   bool

	// input
	Recursive   bool
	Hidden      bool
	NoIgnore    bool
	BinaryExts  bool
	MaxFileSize int64
	Workers     int

	// output
	JSONOutput bool
	Color      string
	LogLevel   string
}

// Validate checks that the config is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Pattern == "" {
		return fmt.Errorf("no pattern specified")
	}
	if _, err := regex.ParseEngine(c.Engine); err != nil {
		return err
	}
	if _, err := position.ParseUnit(c.Unit); err != nil {
		return err
	}
	if c.Region != "" {
		if _, err := search.ParseRegion(c.Region); err != nil {
			return err
		}
	}
	if _, err := parseColorMode(c.Color); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Limit < 0 {
		return fmt.Errorf("invalid limit: %d", c.Limit)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	if c.Write {
		if c.Mode != search.ModeReplace {
			return fmt.Errorf("--write only applies to replace")
		}
		if len(c.Paths) == 0 {
			return fmt.Errorf("cannot use --write with standard input")
		}
		if c.JSONOutput {
			return fmt.Errorf("cannot use --write and --json together")
		}
	}
	if c.Literal && c.Mode != search.ModeReplace {
		return fmt.Errorf("--literal only applies to replace")
	}
	return nil
}

// Options returns the compile options the flags select.
func (c *Config) Options() regex.Options {
	var o regex.Options
	if !c.LenientEscapes {
		o |= regex.ErrorOnUnknownEscapes
	}
	flags := []struct {
		set bool
		opt regex.Options
	}{
		{c.IgnoreCase, regex.CaseInsensitive},
		{c.Extended, regex.Comments},
		{c.DotAll, regex.DotAll},
		{c.Multiline, regex.Multiline},
		{c.Fixed, regex.Literal},
		{c.UnixLines, regex.UnixLines},
		{c.UnicodeWord, regex.UnicodeWord},
	}
	for _, f := range flags {
		if f.set {
			o |= f.opt
		}
	}
	return o
}
