package output

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/dl/gorex/internal/position"
	"github.com/dl/gorex/internal/search"
)

func findResult() Result {
	return Result{
		Path: "test.txt",
		Report: search.Report{
			Count: 2,
			Hits: []search.Hit{
				{Line: 1, Column: 1, Start: 0, End: 3, Text: "a=1", Groups: []search.Group{
					{Index: 1, Name: "k", Matched: true, Start: 0, End: 1, Local: [2]int{0, 1}, Text: "a"},
					{Index: 2, Matched: true, Start: 2, End: 3, Local: [2]int{2, 3}, Text: "1"},
				}},
				{Line: 3, Column: 4, LineByte: 9, Start: 12, End: 15, Text: "bb=", Groups: []search.Group{
					{Index: 1, Name: "k", Matched: true, Start: 12, End: 14, Local: [2]int{0, 2}, Text: "bb"},
					{Index: 2, Local: [2]int{-1, -1}},
				}},
			},
		},
	}
}

func TestTextFormatter_Find(t *testing.T) {
	f := NewTextFormatter(search.ModeFind, NewStyles(io.Discard, false), false)

	got := string(f.Format(nil, findResult(), false))
	want := "1:1:a=1\n3:4:bb=\n"
	if got != want {
		t.Errorf("single: got %q, want %q", got, want)
	}

	got = string(f.Format(nil, findResult(), true))
	want = "test.txt:1:1:a=1\ntest.txt:3:4:bb=\n"
	if got != want {
		t.Errorf("multi: got %q, want %q", got, want)
	}
}

var ansiSeq = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestTextFormatter_Color(t *testing.T) {
	f := NewTextFormatter(search.ModeFind, NewStyles(io.Discard, true), true)
	got := string(f.Format(nil, findResult(), true))
	if !strings.Contains(got, "\x1b[") {
		t.Fatalf("expected ANSI escapes in %q", got)
	}
	plain := ansiSeq.ReplaceAllString(got, "")
	if want := "test.txt:1:1:a=1\ntest.txt:3:4:bb=\n"; plain != want {
		t.Errorf("stripped: got %q, want %q", plain, want)
	}
}

func TestTextFormatter_ColorMultiline(t *testing.T) {
	f := NewTextFormatter(search.ModeFind, NewStyles(io.Discard, true), true)
	r := Result{Report: search.Report{Hits: []search.Hit{{Line: 1, Column: 1, Text: "ab\n\tc"}}}}
	plain := ansiSeq.ReplaceAllString(string(f.Format(nil, r, false)), "")
	if plain != "1:1:ab\n\tc\n" {
		t.Errorf("got %q", plain)
	}
}

func TestTextFormatter_Count(t *testing.T) {
	f := NewTextFormatter(search.ModeCount, Styles{}, false)
	result := Result{Path: "test.txt", Report: search.Report{Count: 3}}

	if got := string(f.Format(nil, result, false)); got != "3\n" {
		t.Errorf("count single: got %q, want %q", got, "3\n")
	}
	if got := string(f.Format(nil, result, true)); got != "test.txt:3\n" {
		t.Errorf("count multi: got %q, want %q", got, "test.txt:3\n")
	}
}

func TestTextFormatter_ReplaceAndSplit(t *testing.T) {
	f := NewTextFormatter(search.ModeReplace, Styles{}, false)
	r := Result{Report: search.Report{Output: []byte("x\ny")}}
	if got := string(f.Format([]byte(">"), r, true)); got != ">x\ny" {
		t.Errorf("replace: got %q", got)
	}

	f = NewTextFormatter(search.ModeSplit, Styles{}, false)
	r = Result{Report: search.Report{Fields: []string{"a", "", "b"}}}
	if got := string(f.Format(nil, r, false)); got != "a\n\nb\n" {
		t.Errorf("split: got %q", got)
	}
}

func TestJSONFormatter_Find(t *testing.T) {
	f := NewJSONFormatter(search.ModeFind, position.UTF16)
	lines := strings.Split(strings.TrimSpace(string(f.Format(nil, findResult(), false))), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var jm jsonMatch
	if err := json.Unmarshal([]byte(lines[1]), &jm); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if jm.Type != "match" || jm.File != "test.txt" || jm.LineNum != 3 || jm.Column != 4 {
		t.Errorf("header = %+v", jm)
	}
	if jm.Span != (jsonSpan{Start: 12, End: 15, Unit: "utf16"}) {
		t.Errorf("span = %+v", jm.Span)
	}
	if len(jm.Groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(jm.Groups))
	}
	if g := jm.Groups[0]; g.Name != "k" || g.Text == nil || *g.Text != "bb" || g.Span.Start != 12 {
		t.Errorf("group 1 = %+v", g)
	}
	if g := jm.Groups[1]; g.Span != nil || g.Text != nil {
		t.Errorf("unset group should have null span and text: %+v", g)
	}
	if !strings.Contains(lines[1], `"span":null`) {
		t.Errorf("expected a null span in %s", lines[1])
	}
}

func TestJSONFormatter_Summary(t *testing.T) {
	tests := []struct {
		mode search.Mode
		rep  search.Report
		want string
	}{
		{search.ModeCount, search.Report{Count: 2}, `{"type":"count","file":"f","count":2,"hit_end":false}`},
		{search.ModeReplace, search.Report{Count: 1, Output: []byte("b"), HitEnd: true}, `{"type":"replace","file":"f","count":1,"hit_end":true,"text":"b"}`},
		{search.ModeSplit, search.Report{Count: 1, Fields: []string{"a", "b"}}, `{"type":"split","file":"f","count":1,"hit_end":false,"fields":["a","b"]}`},
	}
	for _, tt := range tests {
		f := NewJSONFormatter(tt.mode, position.Byte)
		got := strings.TrimSpace(string(f.Format(nil, Result{Path: "f", Report: tt.rep}, false)))
		if got != tt.want {
			t.Errorf("%v: got %s, want %s", tt.mode, got, tt.want)
		}
	}
}

func tempWriter(t *testing.T) (*Writer, *os.File) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return NewWriter(int(f.Fd())), f
}

func readBack(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestWriter(t *testing.T) {
	w, f := tempWriter(t)
	if err := w.Write([]byte("ab"), nil, []byte("c"), []byte{}, []byte("de")); err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, f); got != "abcde" {
		t.Errorf("got %q, want %q", got, "abcde")
	}
}

func TestOrderedWriter(t *testing.T) {
	w, f := tempWriter(t)
	ow := NewOrderedWriter(w, NewTextFormatter(search.ModeCount, Styles{}, false), true)

	results := make(chan Result, 5)
	for _, seq := range []int{3, 1, 4, 2, 5} {
		r := Result{Path: string(rune('a' + seq - 1)), SeqNum: seq, Report: search.Report{Count: seq}}
		if seq == 4 {
			r.Err = os.ErrNotExist
		}
		results <- r
	}
	close(results)

	var visited []int
	err := ow.WriteOrdered(results, func(r Result) bool {
		visited = append(visited, r.SeqNum)
		return r.SeqNum != 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, f); got != "a:1\nc:3\ne:5\n" {
		t.Errorf("got %q", got)
	}
	if len(visited) != 5 || visited[0] != 1 || visited[4] != 5 {
		t.Errorf("visit order = %v", visited)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if err := os.WriteFile(path, []byte("old"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("new")); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q", data)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary file left behind: %d entries", len(entries))
	}

	if err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for a missing file")
	}
}
