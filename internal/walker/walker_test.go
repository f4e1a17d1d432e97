package walker

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func collect(t *testing.T, roots []string, opts Options) ([]string, []error) {
	t.Helper()
	files, errs := Walk(roots, opts)
	var paths []string
	var errList []error
	done := make(chan struct{})
	go func() {
		for err := range errs {
			errList = append(errList, err)
		}
		close(done)
	}()
	for f := range files {
		paths = append(paths, f.Path)
	}
	<-done
	slices.Sort(paths)
	return paths, errList
}

func rel(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i], _ = filepath.Rel(root, p)
	}
	return out
}

func TestWalkRecursive(t *testing.T) {
	root := makeTree(t, map[string]string{
		".gitignore":     "*.log\n",
		"a.txt":          "a",
		"skip.log":       "x",
		".hidden":        "h",
		"img.png":        "p",
		"sub/b.txt":      "b",
		"sub/.gitignore": "c.txt\n",
		"sub/c.txt":      "c",
		"sub/deep/d.txt": "d",
		".git/config":    "g",
		".dot/e.txt":     "e",
	})

	got, errs := collect(t, []string{root}, Options{Recursive: true})
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	want := []string{"a.txt", "sub/b.txt", "sub/deep/d.txt"}
	if !slices.Equal(rel(root, got), want) {
		t.Errorf("got %v, want %v", rel(root, got), want)
	}

	got, _ = collect(t, []string{root}, Options{Recursive: true, NoIgnore: true, Hidden: true, BinaryExts: true})
	want = []string{".dot/e.txt", ".gitignore", ".hidden", "a.txt", "img.png", "skip.log", "sub/.gitignore", "sub/b.txt", "sub/c.txt", "sub/deep/d.txt"}
	if !slices.Equal(rel(root, got), want) {
		t.Errorf("everything: got %v, want %v", rel(root, got), want)
	}
}

func TestWalkFiles(t *testing.T) {
	root := makeTree(t, map[string]string{"a.txt": "a", "dir/b.txt": "b"})

	got, errs := collect(t, []string{filepath.Join(root, "a.txt"), filepath.Join(root, "dir"), filepath.Join(root, "missing")}, Options{})
	if want := []string{"a.txt"}; !slices.Equal(rel(root, got), want) {
		t.Errorf("got %v, want %v", rel(root, got), want)
	}
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), errs)
	}
	var we *WalkError
	for _, err := range errs {
		if !errors.As(err, &we) {
			t.Errorf("error %v is not a WalkError", err)
		}
	}
}

func TestWalkSymlink(t *testing.T) {
	root := makeTree(t, map[string]string{"real/a.txt": "a"})
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skip("symlinks unsupported:", err)
	}
	os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "broken"))

	got, errs := collect(t, []string{root}, Options{Recursive: true})
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if want := []string{"link/a.txt", "real/a.txt"}; !slices.Equal(rel(root, got), want) {
		t.Errorf("got %v, want %v", rel(root, got), want)
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct{ dir, name, want string }{
		{"a", "b", "a/b"},
		{"a/", "b", "a/b"},
		{"/", "b", "/b"},
		{"", "b", "/b"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.dir, tt.name); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
}
