package cli

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/dl/gorex/internal/input"
	"github.com/dl/gorex/internal/output"
	"github.com/dl/gorex/internal/position"
	"github.com/dl/gorex/internal/scheduler"
	"github.com/dl/gorex/internal/search"
	"github.com/dl/gorex/internal/walker"
	"github.com/dl/gorex/regex"
)

// Exit codes.
const (
	ExitMatch   = 0
	ExitNoMatch = 1
	ExitError   = 2
)

// env is where a run reads and writes.
type env struct {
	stdout *os.File
	stdin  io.Reader
	stderr io.Writer
}

// newLogger builds the stderr logger at the configured level.
func newLogger(w io.Writer, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{Level: lvl, Prefix: "gorex"})
}

// Run executes the command described by cfg, which must be valid.
// Returns exit code: 0 = match found, 1 = no match, 2 = error.
func Run(ctx context.Context, cfg Config) int {
	return run(ctx, cfg, env{stdout: os.Stdout, stdin: os.Stdin, stderr: os.Stderr})
}

func run(ctx context.Context, cfg Config, e env) int {
	logger := newLogger(e.stderr, cfg.LogLevel)

	kind, _ := regex.ParseEngine(cfg.Engine)
	unit, _ := position.ParseUnit(cfg.Unit)
	opts := search.Options{
		Mode:     cfg.Mode,
		Unit:     unit,
		Template: cfg.Template,
		Literal:  cfg.Literal,
		Limit:    cfg.Limit,
	}
	if cfg.Region != "" {
		r, _ := search.ParseRegion(cfg.Region)
		opts.Region = &r
	}
	searcher, err := search.New(opts)
	if err != nil {
		logger.Error("invalid options", "err", err)
		return ExitError
	}

	// Compile once up front so a bad pattern is one clear error rather than
	// one per file. The cache keeps it as the master for the workers.
	cache := regex.NewCache(logger)
	defer cache.Close()
	pat := scheduler.Pattern{Engine: kind, Text: cfg.Pattern, Options: cfg.Options()}
	p, err := cache.Compile(regex.WithWorker(ctx, -1), pat.Engine, pat.Text, pat.Options)
	if err != nil {
		logger.Error("invalid pattern", "pattern", cfg.Pattern, "err", err)
		return ExitError
	}
	if cfg.Mode == search.ModeReplace && !cfg.Literal {
		if _, err := regex.ParseTemplate(p, cfg.Template); err != nil {
			logger.Error("invalid replacement", "template", cfg.Template, "err", err)
			return ExitError
		}
	}
	cache.Release(-1)

	formatter := newFormatter(cfg, unit, e.stdout)
	w := output.NewWriter(int(e.stdout.Fd()))

	var reader input.Reader
	var files <-chan walker.FileEntry
	var walkFailed atomic.Bool
	walkDone := make(chan struct{})
	if len(cfg.Paths) == 0 {
		close(walkDone)
		reader = input.NewStreamReader(e.stdin)
		ch := make(chan walker.FileEntry, 1)
		ch <- walker.FileEntry{}
		close(ch)
		files = ch
	} else {
		reader = input.NewBufferedReader(cfg.MaxFileSize)
		var errCh <-chan error
		files, errCh = walker.Walk(cfg.Paths, walker.Options{
			Recursive:  cfg.Recursive,
			NoIgnore:   cfg.NoIgnore,
			Hidden:     cfg.Hidden,
			BinaryExts: cfg.BinaryExts,
		})
		go func() {
			defer close(walkDone)
			for err := range errCh {
				walkFailed.Store(true)
				logger.Warn("walk error", "err", err)
			}
		}()
	}

	sched := scheduler.New(cfg.Workers, pat, cache, searcher, reader, logger)
	results := sched.Run(ctx, files)

	multiFile := len(cfg.Paths) > 1 || cfg.Recursive
	ow := output.NewOrderedWriter(w, formatter, multiFile)
	matched, failed := false, false
	err = ow.WriteOrdered(results, func(r output.Result) bool {
		if r.Err != nil {
			failed = true
			logger.Warn("error", "path", r.Path, "err", r.Err)
			return false
		}
		if r.HasMatch() {
			matched = true
		}
		if cfg.Write {
			if !writeBack(r, logger) {
				failed = true
			}
			return false
		}
		// find and count print nothing for files without matches
		return r.HasMatch() || cfg.Mode == search.ModeReplace || cfg.Mode == search.ModeSplit || !multiFile
	})
	<-walkDone
	if err != nil {
		logger.Error("write failed", "err", err)
		return ExitError
	}

	switch {
	case matched:
		return ExitMatch
	case failed, walkFailed.Load():
		return ExitError
	}
	return ExitNoMatch
}

func newFormatter(cfg Config, unit position.Unit, stdout *os.File) output.Formatter {
	if cfg.JSONOutput {
		return output.NewJSONFormatter(cfg.Mode, unit)
	}
	mode, _ := parseColorMode(cfg.Color)
	useColor := false
	switch mode {
	case ColorAlways:
		useColor = true
	case ColorAuto:
		useColor = output.IsTerminal(stdout.Fd())
	}
	return output.NewTextFormatter(cfg.Mode, output.NewStyles(stdout, mode == ColorAlways), useColor)
}

// writeBack rewrites a file that had replacements. It reports false on
// failure.
func writeBack(r output.Result, logger *log.Logger) bool {
	if r.Count() == 0 {
		return true
	}
	if err := output.WriteFileAtomic(r.Path, r.Report.Output); err != nil {
		logger.Error("write back failed", "path", r.Path, "err", err)
		return false
	}
	logger.Info("rewrote file", "path", r.Path, "replacements", r.Count())
	return true
}
