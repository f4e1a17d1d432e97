package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// LoadConfigArgs reads the gorex config file and returns its arguments.
// Location: GOREX_CONFIG_PATH, or ~/.gorex. One flag per line; blank lines
// and lines starting with # are ignored. Returns nil if there is no file.
func LoadConfigArgs() []string {
	path := os.Getenv("GOREX_CONFIG_PATH")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".gorex")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var args []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args = append(args, line)
	}
	return args
}

// withConfigArgs places config arguments right after the subcommand name so
// flags given on the command line still win.
func withConfigArgs(cfgArgs, args []string) []string {
	if len(cfgArgs) == 0 {
		return args
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return append(append([]string(nil), cfgArgs...), args...)
	}
	out := make([]string, 0, len(cfgArgs)+len(args))
	out = append(out, args[0])
	out = append(out, cfgArgs...)
	return append(out, args[1:]...)
}
