package output

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dl/gorex/internal/search"
)

// TextFormatter formats results as human-readable text with optional color.
type TextFormatter struct {
	mode     search.Mode
	styles   Styles
	useColor bool
}

// NewTextFormatter creates a TextFormatter for mode.
func NewTextFormatter(mode search.Mode, styles Styles, useColor bool) *TextFormatter {
	return &TextFormatter{mode: mode, styles: styles, useColor: useColor}
}

func (f *TextFormatter) Format(buf []byte, result Result, multiFile bool) []byte {
	rep := &result.Report
	switch f.mode {
	case search.ModeCount:
		if multiFile {
			buf = f.paint(buf, f.styles.Path, result.Path)
			buf = f.paint(buf, f.styles.Separator, ":")
		}
		buf = strconv.AppendInt(buf, int64(rep.Count), 10)
		return append(buf, '\n')
	case search.ModeReplace:
		return append(buf, rep.Output...)
	case search.ModeSplit:
		for _, field := range rep.Fields {
			buf = append(buf, field...)
			buf = append(buf, '\n')
		}
		return buf
	}
	for i := range rep.Hits {
		buf = f.formatHit(buf, result.Path, &rep.Hits[i], multiFile)
	}
	return buf
}

func (f *TextFormatter) formatHit(buf []byte, path string, h *search.Hit, multiFile bool) []byte {
	if multiFile {
		buf = f.paint(buf, f.styles.Path, path)
		buf = f.paint(buf, f.styles.Separator, ":")
	}
	buf = f.paint(buf, f.styles.Line, strconv.Itoa(h.Line))
	buf = f.paint(buf, f.styles.Separator, ":")
	buf = strconv.AppendInt(buf, int64(h.Column), 10)
	buf = f.paint(buf, f.styles.Separator, ":")
	buf = f.highlight(buf, h)
	return append(buf, '\n')
}

// highlight paints the match, with its outermost captured groups in the group
// style. Groups nested in or overlapping an earlier one keep the outer color.
func (f *TextFormatter) highlight(buf []byte, h *search.Hit) []byte {
	if !f.useColor {
		return append(buf, h.Text...)
	}
	spans := make([][2]int, 0, len(h.Groups))
	for _, g := range h.Groups {
		if g.Matched && g.Local[1] > g.Local[0] {
			spans = append(spans, g.Local)
		}
	}
	slices.SortStableFunc(spans, func(a, b [2]int) int { return a[0] - b[0] })

	prev := 0
	for _, sp := range spans {
		if sp[0] < prev || sp[1] > len(h.Text) {
			continue
		}
		buf = f.paint(buf, f.styles.Match, h.Text[prev:sp[0]])
		buf = f.paint(buf, f.styles.Group, h.Text[sp[0]:sp[1]])
		prev = sp[1]
	}
	return f.paint(buf, f.styles.Match, h.Text[prev:])
}

// paint renders s line by line so multi-line matches are not padded into a
// block.
func (f *TextFormatter) paint(buf []byte, st lipgloss.Style, s string) []byte {
	if !f.useColor {
		return append(buf, s...)
	}
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			buf = append(buf, '\n')
		}
		if part != "" {
			buf = append(buf, st.Render(part)...)
		}
	}
	return buf
}

var _ Formatter = (*TextFormatter)(nil)
