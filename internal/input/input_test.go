package input

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBufferedReader_Read(t *testing.T) {
	content := []byte("hello world\nline two\n")
	path := writeTemp(t, "test.txt", content)

	r := NewBufferedReader(0)
	result, err := r.Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	defer result.Release()

	if !bytes.Equal(result.Data, content) {
		t.Errorf("data = %q, want %q", result.Data, content)
	}
}

func TestBufferedReader_LargeFile(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcdef"), 16*1024) // past the pooled capacity
	path := writeTemp(t, "big.txt", content)

	r := NewBufferedReader(0)
	for i := 0; i < 3; i++ {
		result, err := r.Read(path)
		if err != nil {
			t.Fatalf("Read() error: %v", err)
		}
		if !bytes.Equal(result.Data, content) {
			t.Fatalf("round %d: data mismatch (len %d)", i, len(result.Data))
		}
		result.Release()
	}
}

func TestBufferedReader_EmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.txt", nil)

	result, err := NewBufferedReader(0).Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	defer result.Release()

	if result.Data != nil {
		t.Errorf("data = %v, want nil for empty file", result.Data)
	}
}

func TestBufferedReader_SizeLimit(t *testing.T) {
	path := writeTemp(t, "f.txt", []byte("0123456789"))

	_, err := NewBufferedReader(4).Read(path)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
	result, err := NewBufferedReader(10).Read(path)
	if err != nil {
		t.Fatalf("at the limit: %v", err)
	}
	result.Release()
}

func TestBufferedReader_Errors(t *testing.T) {
	r := NewBufferedReader(0)
	if _, err := r.Read("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
	if _, err := r.Read(t.TempDir()); err == nil {
		t.Error("expected error for a directory")
	}
}

func TestStreamReader(t *testing.T) {
	result, err := NewStreamReader(strings.NewReader("from a pipe")).Read("ignored")
	if err != nil {
		t.Fatal(err)
	}
	defer result.Release()
	if string(result.Data) != "from a pipe" {
		t.Errorf("data = %q", result.Data)
	}
}

func BenchmarkBufferedReader(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.txt")
	if err := os.WriteFile(path, bytes.Repeat([]byte("line of text\n"), 4096), 0644); err != nil {
		b.Fatal(err)
	}
	r := NewBufferedReader(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := r.Read(path)
		if err != nil {
			b.Fatal(err)
		}
		result.Release()
	}
}
