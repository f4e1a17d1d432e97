package walker

import (
	"path/filepath"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreLayer holds the compiled .gitignore of one directory.
type ignoreLayer struct {
	dir    string
	parser *ignore.GitIgnore
}

// ignoreLayers are the .gitignore files in effect for a directory, outermost
// first. Parsers are immutable and shared between goroutines; only
// directories that actually have a .gitignore get a layer.
type ignoreLayers []ignoreLayer

// with returns l extended by dir's .gitignore, never aliasing l's backing
// array. A non-nil result is returned even when dir has no .gitignore.
func (l ignoreLayers) with(dir string) ignoreLayers {
	out := make(ignoreLayers, len(l), len(l)+1)
	copy(out, l)
	parser, err := ignore.CompileIgnoreFile(joinPath(dir, ".gitignore"))
	if err != nil {
		return out
	}
	return append(out, ignoreLayer{dir: dir, parser: parser})
}

// ignored reports whether any layer excludes fullPath.
func (l ignoreLayers) ignored(fullPath string, isDir bool) bool {
	for _, layer := range l {
		rel, err := filepath.Rel(layer.dir, fullPath)
		if err != nil {
			continue
		}
		if isDir {
			rel += "/"
		}
		if layer.parser.MatchesPath(rel) {
			return true
		}
	}
	return false
}
