package output

import (
	"encoding/json"

	"github.com/dl/gorex/internal/position"
	"github.com/dl/gorex/internal/search"
)

// JSONFormatter formats results as JSON Lines. Spans are reported in unit.
type JSONFormatter struct {
	mode search.Mode
	unit position.Unit
}

// NewJSONFormatter creates a JSONFormatter.
func NewJSONFormatter(mode search.Mode, unit position.Unit) *JSONFormatter {
	return &JSONFormatter{mode: mode, unit: unit}
}

type jsonSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Unit  string `json:"unit"`
}

type jsonGroup struct {
	Index int       `json:"index"`
	Name  string    `json:"name,omitempty"`
	Span  *jsonSpan `json:"span"`
	Text  *string   `json:"text"`
}

type jsonMatch struct {
	Type       string      `json:"type"`
	File       string      `json:"file,omitempty"`
	LineNum    int         `json:"line_number"`
	LineOffset int64       `json:"line_byte_offset"`
	Column     int         `json:"column"`
	Span       jsonSpan    `json:"span"`
	Text       string      `json:"text"`
	Groups     []jsonGroup `json:"groups,omitempty"`
}

type jsonSummary struct {
	Type   string   `json:"type"`
	File   string   `json:"file,omitempty"`
	Count  int      `json:"count"`
	HitEnd bool     `json:"hit_end"`
	Text   *string  `json:"text,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func (f *JSONFormatter) Format(buf []byte, result Result, multiFile bool) []byte {
	rep := &result.Report
	if f.mode != search.ModeFind {
		s := jsonSummary{Type: f.mode.String(), File: result.Path, Count: rep.Count, HitEnd: rep.HitEnd}
		switch f.mode {
		case search.ModeReplace:
			text := string(rep.Output)
			s.Text = &text
		case search.ModeSplit:
			s.Fields = rep.Fields
		}
		return appendJSON(buf, s)
	}

	unit := f.unit.String()
	for _, h := range rep.Hits {
		jm := jsonMatch{
			Type:       "match",
			File:       result.Path,
			LineNum:    h.Line,
			LineOffset: h.LineByte,
			Column:     h.Column,
			Span:       jsonSpan{Start: h.Start, End: h.End, Unit: unit},
			Text:       h.Text,
		}
		for _, g := range h.Groups {
			jg := jsonGroup{Index: g.Index, Name: g.Name}
			if g.Matched {
				text := g.Text
				jg.Span = &jsonSpan{Start: g.Start, End: g.End, Unit: unit}
				jg.Text = &text
			}
			jm.Groups = append(jm.Groups, jg)
		}
		buf = appendJSON(buf, jm)
	}
	return buf
}

func appendJSON(buf []byte, v any) []byte {
	data, _ := json.Marshal(v)
	buf = append(buf, data...)
	return append(buf, '\n')
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
