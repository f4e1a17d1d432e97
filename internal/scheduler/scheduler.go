package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dl/gorex/internal/input"
	"github.com/dl/gorex/internal/output"
	"github.com/dl/gorex/internal/search"
	"github.com/dl/gorex/internal/walker"
	"github.com/dl/gorex/regex"
)

// Pattern names the pattern every worker searches with.
type Pattern struct {
	Engine  regex.Engine
	Text    string
	Options regex.Options
}

// Scheduler manages a pool of workers that search files concurrently. Each
// worker takes its own clone of the pattern from the cache and releases it
// when it exits.
type Scheduler struct {
	workers  int
	pattern  Pattern
	cache    *regex.Cache
	searcher *search.Searcher
	reader   input.Reader
	logger   *log.Logger
}

// New creates a Scheduler with the given number of workers.
// If workers is 0, defaults to NumCPU.
func New(workers int, pat Pattern, cache *regex.Cache, s *search.Searcher, r input.Reader, logger *log.Logger) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scheduler{
		workers:  workers,
		pattern:  pat,
		cache:    cache,
		searcher: s,
		reader:   r,
		logger:   logger,
	}
}

type job struct {
	seq   int
	entry walker.FileEntry
}

// Run processes files from the file channel and returns results on the result channel.
// Results carry sequence numbers, starting at 1, in the order files arrived.
// Once ctx is done the remaining files are drained and reported with ctx's
// error.
func (s *Scheduler) Run(ctx context.Context, files <-chan walker.FileEntry) <-chan output.Result {
	resultCh := make(chan output.Result, s.workers*2)

	jobs := make(chan job, s.workers)
	go func() {
		defer close(jobs)
		seq := 0
		for entry := range files {
			seq++
			jobs <- job{seq: seq, entry: entry}
		}
	}()

	var wg sync.WaitGroup
	for id := range s.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if err := s.cache.Release(id); err != nil {
					s.logger.Debug("release clones", "worker", id, "err", err)
				}
			}()
			wctx := regex.WithWorker(ctx, id)
			for j := range jobs {
				result := s.processFile(wctx, j.entry)
				result.SeqNum = j.seq
				resultCh <- result
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	return resultCh
}

func (s *Scheduler) processFile(ctx context.Context, entry walker.FileEntry) output.Result {
	result := output.Result{Path: entry.Path}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	p, err := s.cache.Compile(ctx, s.pattern.Engine, s.pattern.Text, s.pattern.Options)
	if err != nil {
		result.Err = err
		return result
	}

	read, err := s.reader.Read(entry.Path)
	if err != nil {
		result.Err = err
		return result
	}
	defer read.Release()

	// Binary files are skipped entirely, like ripgrep does. An unchanged
	// replace still has to reproduce the content.
	if walker.IsBinary(read.Data) {
		s.logger.Debug("skipping binary file", "path", entry.Path)
		if s.searcher.Options().Mode == search.ModeReplace {
			result.Report.Output = append([]byte(nil), read.Data...)
		}
		return result
	}

	rep, err := s.searcher.Search(p, read.Data)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", entry.Path, err)
		return result
	}
	result.Report = rep
	return result
}
