package regex

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// skipPCRE skips tests on the default engine when GOREX_SKIP_PCRE=1.
// go.elara.ws/pcre runs on modernc.org/libc, whose pointer arithmetic
// trips checkptr under -race.
func skipPCRE(t *testing.T) {
	t.Helper()
	if os.Getenv("GOREX_SKIP_PCRE") == "1" {
		t.Skip("skipping PCRE test: checkptr incompatible with modernc.org/libc")
	}
}

func compile(t *testing.T, text string) *Pattern {
	t.Helper()
	skipPCRE(t)
	p, err := Compile(text, Default)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestCompileSyntaxError(t *testing.T) {
	skipPCRE(t)
	for _, kind := range []Engine{PCRE, Regexp2, RE2, Coregex} {
		t.Run(kind.String(), func(t *testing.T) {
			pattern := `\d+-(\d+)?)-\d+`
			_, err := CompileEngine(kind, pattern, Default)
			var se *PatternSyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, 1, se.Line)
			assert.GreaterOrEqual(t, se.Offset, 0)
			assert.LessOrEqual(t, se.Offset, len(pattern))
			assert.Equal(t, pattern, se.Pattern)
		})
	}
}

func TestCompileValid(t *testing.T) {
	compile(t, `\d+-(\d+)?-\d+`)
}

func TestGroupCount(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{`\d+-\d+-\d+`, 0},
		{`\d+-(\d+)-\d+`, 1},
		{`\d+-(\d+)-(\d+)?`, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compile(t, tt.pattern).GroupCount(), tt.pattern)
	}
}

func TestGroupNumber(t *testing.T) {
	p := compile(t, `\d+-(?<mygroup>\d+)-\d+`)

	n, err := p.GroupNumber("mygroup")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = p.GroupNumber("missing")
	var ue *UnknownGroupNameError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "missing", ue.Name)

	assert.Equal(t, []string{"", "mygroup"}, p.GroupNames())
}

func TestClone(t *testing.T) {
	p := compile(t, `\d+-\d+-\d+`)
	c, err := p.Clone()
	require.NoError(t, err)
	assert.Equal(t, p.String(), c.String())
	assert.Equal(t, p.GroupCount(), c.GroupCount())
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClosed)

	// the master survives its clone
	m, err := p.Matcher("1-2-3")
	require.NoError(t, err)
	defer m.Close()
	ok, err := m.Matches()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMatcherRegionIsWholeText(t *testing.T) {
	p := compile(t, `([𡌛𥧄𨏍𠂉])([𡑮𥶡])?`)
	m, err := p.Matcher(astral)
	require.NoError(t, err)
	defer m.Close()
	b := NewBridge(astral)
	assert.Equal(t, b.Whole(), m.Region())
}

func TestUnsupportedOption(t *testing.T) {
	_, err := CompileEngine(RE2, `a b`, Comments)
	assert.ErrorIs(t, err, &EngineError{Code: CodeUnsupportedOption})
}

func TestClosedPattern(t *testing.T) {
	skipPCRE(t)
	p, err := Compile(`a`, Default)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Clone()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = p.Matcher("a")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = p.GroupNumber("x")
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestMustCompilePanics(t *testing.T) {
	skipPCRE(t)
	assert.Panics(t, func() { MustCompile(`(`) })
}
