package input

import "io"

// StdinReader reads all data from a stream, normally stdin. The path
// argument is ignored.
type StdinReader struct {
	r io.Reader
}

// NewStreamReader creates a StdinReader on r.
func NewStreamReader(r io.Reader) *StdinReader {
	return &StdinReader{r: r}
}

func (r *StdinReader) Read(_ string) (ReadResult, error) {
	data, err := io.ReadAll(r.r)
	if err != nil {
		return ReadResult{}, err
	}
	return ReadResult{Data: data, Release: noRelease}, nil
}
