package output

import "github.com/dl/gorex/internal/search"

// Result is what one worker produced for one input.
type Result struct {
	Path   string
	SeqNum int
	Report search.Report
	Err    error
}

// Count returns the number of matches in this result.
func (r *Result) Count() int { return r.Report.Count }

// HasMatch returns true if this result has at least one match.
func (r *Result) HasMatch() bool { return r.Err == nil && r.Report.Count > 0 }
