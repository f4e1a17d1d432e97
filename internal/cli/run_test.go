package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dl/gorex/internal/search"
)

type runOutput struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, cfg Config, stdin string) runOutput {
	t.Helper()
	if cfg.Engine == "" {
		cfg.Engine = "re2"
	}
	if cfg.Unit == "" {
		cfg.Unit = "byte"
	}
	cfg.Color = "never"
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out, err := os.CreateTemp(t.TempDir(), "stdout")
	if err != nil {
		t.Fatal(err)
	}
	defer out.Close()
	var stderr bytes.Buffer
	code := run(context.Background(), cfg, env{stdout: out, stdin: strings.NewReader(stdin), stderr: &stderr})
	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatal(err)
	}
	return runOutput{code: code, stdout: string(data), stderr: stderr.String()}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRunFindStdin(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeFind, Pattern: `(\w+)=(\d+)`, Unit: "utf16"}, "𠀋 k=1\nx\nv=22\n")
	if got.code != ExitMatch {
		t.Fatalf("code = %d, stderr %s", got.code, got.stderr)
	}
	if want := "1:4:k=1\n3:1:v=22\n"; got.stdout != want {
		t.Errorf("stdout = %q, want %q", got.stdout, want)
	}
}

func TestRunFindFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "one 1\n", "b.txt": "none\n", "c.txt": "x 22 33"})
	cfg := Config{
		Mode:    search.ModeFind,
		Pattern: `\d+`,
		Paths:   []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"), filepath.Join(dir, "c.txt")},
	}
	got := runCLI(t, cfg, "")
	want := filepath.Join(dir, "a.txt") + ":1:5:1\n" +
		filepath.Join(dir, "c.txt") + ":1:3:22\n" +
		filepath.Join(dir, "c.txt") + ":1:6:33\n"
	if got.code != ExitMatch || got.stdout != want {
		t.Errorf("code %d stdout %q, want %q", got.code, got.stdout, want)
	}
}

func TestRunCountRecursive(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "1 2 3", "b.txt": "none", ".gitignore": "skip.txt\n", "skip.txt": "4 5"})
	got := runCLI(t, Config{Mode: search.ModeCount, Pattern: `\d`, Recursive: true, Paths: []string{dir}}, "")
	if want := filepath.Join(dir, "a.txt") + ":3\n"; got.code != ExitMatch || got.stdout != want {
		t.Errorf("code %d stdout %q, want %q", got.code, got.stdout, want)
	}
}

func TestRunNoMatch(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeFind, Pattern: `zzz`}, "abc")
	if got.code != ExitNoMatch || got.stdout != "" {
		t.Errorf("code %d stdout %q", got.code, got.stdout)
	}
}

func TestRunErrors(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeFind, Pattern: `(`}, "abc")
	if got.code != ExitError || !strings.Contains(got.stderr, "invalid pattern") {
		t.Errorf("bad pattern: code %d stderr %q", got.code, got.stderr)
	}

	got = runCLI(t, Config{Mode: search.ModeReplace, Pattern: `(a)`, Template: "$7"}, "abc")
	if got.code != ExitError || !strings.Contains(got.stderr, "invalid replacement") {
		t.Errorf("bad template: code %d stderr %q", got.code, got.stderr)
	}

	got = runCLI(t, Config{Mode: search.ModeFind, Pattern: `a`, Paths: []string{filepath.Join(t.TempDir(), "missing")}}, "")
	if got.code != ExitError {
		t.Errorf("missing file: code %d", got.code)
	}
}

func TestRunReplaceStdout(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeReplace, Pattern: `(?P<k>\w+)=(\w+)`, Template: "${k}: $2"}, "a=b\nc=d\n")
	if got.code != ExitMatch || got.stdout != "a: b\nc: d\n" {
		t.Errorf("code %d stdout %q", got.code, got.stdout)
	}

	got = runCLI(t, Config{Mode: search.ModeReplace, Pattern: `\d`, Template: "$0", Literal: true, Region: "2:"}, "1 2 3")
	if got.stdout != "1 $0 $0" {
		t.Errorf("literal with region: stdout %q", got.stdout)
	}
}

func TestRunReplaceWrite(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "x=1 y=2", "b.txt": "untouched"})
	a, b := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")
	got := runCLI(t, Config{Mode: search.ModeReplace, Pattern: `(\w)=(\d)`, Template: "$2=$1", Write: true, Paths: []string{a, b}}, "")
	if got.code != ExitMatch || got.stdout != "" {
		t.Fatalf("code %d stdout %q stderr %q", got.code, got.stdout, got.stderr)
	}
	if data, _ := os.ReadFile(a); string(data) != "1=x 2=y" {
		t.Errorf("a.txt = %q", data)
	}
	if data, _ := os.ReadFile(b); string(data) != "untouched" {
		t.Errorf("b.txt = %q", data)
	}
}

func TestRunSplitJSON(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeSplit, Pattern: `\s*;\s*`, Limit: 2, JSONOutput: true}, "a ; b;c")
	var v struct {
		Type   string   `json:"type"`
		Count  int      `json:"count"`
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal([]byte(got.stdout), &v); err != nil {
		t.Fatalf("stdout %q: %v", got.stdout, err)
	}
	if v.Type != "split" || v.Count != 1 || len(v.Fields) != 2 || v.Fields[1] != "b;c" {
		t.Errorf("got %+v", v)
	}
}

func TestRunFindJSONUnits(t *testing.T) {
	got := runCLI(t, Config{Mode: search.ModeFind, Pattern: `b`, Unit: "grapheme", JSONOutput: true}, "éb")
	var v struct {
		Column int `json:"column"`
		Span   struct {
			Start int    `json:"start"`
			End   int    `json:"end"`
			Unit  string `json:"unit"`
		} `json:"span"`
	}
	if err := json.Unmarshal([]byte(got.stdout), &v); err != nil {
		t.Fatalf("stdout %q: %v", got.stdout, err)
	}
	if v.Column != 2 || v.Span.Start != 1 || v.Span.End != 2 || v.Span.Unit != "grapheme" {
		t.Errorf("got %+v", v)
	}
}
