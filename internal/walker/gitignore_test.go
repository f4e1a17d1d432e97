package walker

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreLayers_BasicMatching(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n!important.log\n"), 0644)

	layers := ignoreLayers(nil).with(dir)

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{"matches glob", filepath.Join(dir, "app.log"), false, true},
		{"no match", filepath.Join(dir, "app.txt"), false, false},
		{"dir pattern matches dir", filepath.Join(dir, "build"), true, true},
		{"dir pattern skips file", filepath.Join(dir, "build"), false, false},
		{"negation", filepath.Join(dir, "important.log"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := layers.ignored(tt.path, tt.isDir); got != tt.want {
				t.Errorf("ignored(%q, isDir=%v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
			}
		})
	}
}

func TestIgnoreLayers_Nested(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	os.Mkdir(sub, 0755)
	os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.tmp\n"), 0644)
	os.WriteFile(filepath.Join(sub, ".gitignore"), []byte("*.dat\n"), 0644)

	outer := ignoreLayers(nil).with(root)
	inner := outer.with(sub)

	if !inner.ignored(filepath.Join(sub, "test.tmp"), false) {
		t.Error("expected root .gitignore to match *.tmp")
	}
	if !inner.ignored(filepath.Join(sub, "test.dat"), false) {
		t.Error("expected sub .gitignore to match *.dat")
	}
	if inner.ignored(filepath.Join(sub, "test.txt"), false) {
		t.Error("expected test.txt to not be ignored")
	}
	if outer.ignored(filepath.Join(root, "x.dat"), false) {
		t.Error("sub rules leaked into the parent layers")
	}
}

func TestIgnoreLayers_NoGitignore(t *testing.T) {
	dir := t.TempDir()
	layers := ignoreLayers(nil).with(dir)
	if layers == nil || len(layers) != 0 {
		t.Fatalf("want empty non-nil layers, got %v", layers)
	}
	if layers.ignored(filepath.Join(dir, "anything.txt"), false) {
		t.Error("expected no ignoring when .gitignore doesn't exist")
	}
}
