package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dl/gorex/internal/search"
)

// Execute runs the gorex command line with args (without the program name)
// and returns the exit code.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, withConfigArgs(LoadConfigArgs(), args), Run)
}

func execute(ctx context.Context, args []string, runFn func(context.Context, Config) int) int {
	root, code := newRootCommand(ctx, runFn)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		newLogger(root.ErrOrStderr(), "warn").Error(err)
		return ExitError
	}
	return *code
}

// newRootCommand builds the command tree. The returned pointer receives the
// exit code of whichever subcommand ran.
func newRootCommand(ctx context.Context, runFn func(context.Context, Config) int) (*cobra.Command, *int) {
	var cfg Config
	code := ExitError

	root := &cobra.Command{
		Use:           "gorex",
		Short:         "Search, count, replace and split with Unicode-aware positions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.BoolVarP(&cfg.IgnoreCase, "ignore-case", "i", false, "case-insensitive matching")
	pf.BoolVarP(&cfg.Extended, "extended", "x", false, "allow whitespace and # comments in the pattern")
	pf.BoolVarP(&cfg.DotAll, "dotall", "s", false, "let . match line terminators")
	pf.BoolVarP(&cfg.Multiline, "multiline", "m", false, "let ^ and $ match at line boundaries")
	pf.BoolVarP(&cfg.Fixed, "fixed-strings", "F", false, "treat the pattern as a literal string")
	pf.BoolVar(&cfg.UnixLines, "unix-lines", false, "only \\n terminates lines")
	pf.BoolVar(&cfg.UnicodeWord, "uword", false, "Unicode word boundaries and classes")
	pf.BoolVar(&cfg.LenientEscapes, "lenient-escapes", false, "treat unknown escapes like \\y as literals")
	pf.StringVar(&cfg.Engine, "engine", "pcre", "regex engine: pcre, regexp2, re2 or coregex")
	pf.StringVar(&cfg.Unit, "unit", "byte", "offset unit for columns and spans: byte, rune, utf16 or grapheme")
	pf.StringVar(&cfg.Region, "region", "", "only search START:END of each input, in --unit offsets")
	pf.BoolVarP(&cfg.Recursive, "recursive", "r", false, "search directories recursively")
	pf.BoolVar(&cfg.Hidden, "hidden", false, "search hidden files and directories")
	pf.BoolVar(&cfg.NoIgnore, "no-ignore", false, "don't respect .gitignore files")
	pf.BoolVar(&cfg.BinaryExts, "binary-exts", false, "don't skip files with binary extensions")
	pf.Int64Var(&cfg.MaxFileSize, "max-filesize", 0, "skip files larger than this many bytes (0: no limit)")
	pf.IntVarP(&cfg.Workers, "threads", "j", 0, "number of worker goroutines (0: one per CPU)")
	pf.StringVar(&cfg.Color, "color", "auto", "when to use colors: auto, always or never")
	pf.BoolVar(&cfg.JSONOutput, "json", false, "output JSON Lines")
	pf.StringVar(&cfg.LogLevel, "log-level", "warn", "log level: debug, info, warn or error")

	runMode := func(mode search.Mode, nargs int) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg.Mode = mode
			cfg.Pattern = args[0]
			if nargs == 2 {
				cfg.Template = args[1]
			}
			cfg.Paths = args[nargs:]
			if err := cfg.Validate(); err != nil {
				return err
			}
			code = runFn(ctx, cfg)
			return nil
		}
	}

	find := &cobra.Command{
		Use:   "find PATTERN [PATH...]",
		Short: "Print every match with its line and column",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMode(search.ModeFind, 1),
	}
	count := &cobra.Command{
		Use:   "count PATTERN [PATH...]",
		Short: "Print the number of matches per input",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runMode(search.ModeCount, 1),
	}
	replace := &cobra.Command{
		Use:   "replace PATTERN TEMPLATE [PATH...]",
		Short: "Replace matches using a $n / ${name} template",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runMode(search.ModeReplace, 2),
	}
	replace.Flags().BoolVarP(&cfg.Write, "write", "w", false, "rewrite files in place")
	replace.Flags().BoolVar(&cfg.Literal, "literal", false, "insert TEMPLATE verbatim")
	split := &cobra.Command{
		Use:   "split PATTERN [PATH]",
		Short: "Print the fields between matches, one per line",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runMode(search.ModeSplit, 1),
	}
	split.Flags().IntVarP(&cfg.Limit, "limit", "n", 0, "return at most this many fields (0: all)")

	root.AddCommand(find, count, replace, split)
	return root, &code
}
