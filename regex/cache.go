package regex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

type workerKey struct{}

// WithWorker returns a context carrying worker id. Each goroutine that asks
// a Cache for patterns must use its own id.
func WithWorker(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, workerKey{}, id)
}

// WorkerFrom returns the worker id carried by ctx.
func WorkerFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerKey{}).(int)
	return id, ok
}

type cacheKey struct {
	key    string
	worker int
}

// Cache hands each worker its own clone of a pattern. Masters are compiled
// once per key; clones are created on a worker's first request and kept
// until Release or Close. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	masters map[string]*Pattern
	clones  map[cacheKey]*Pattern
	closed  bool

	compiles singleflight.Group
	logger   *log.Logger
}

// NewCache creates an empty cache. A nil logger discards output.
func NewCache(logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Cache{
		masters: make(map[string]*Pattern),
		clones:  make(map[cacheKey]*Pattern),
		logger:  logger,
	}
}

// Get returns the calling worker's clone of the pattern stored under key,
// compiling the master with factory on first use.
func (c *Cache) Get(ctx context.Context, key string, factory func() (*Pattern, error)) (*Pattern, error) {
	id, ok := WorkerFrom(ctx)
	if !ok {
		return nil, ErrNoWorker
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := cacheKey{key: key, worker: id}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if p, ok := c.clones[k]; ok {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	master, err := c.master(key, factory)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if p, ok := c.clones[k]; ok {
		return p, nil
	}
	p, err := master.Clone()
	if err != nil {
		return nil, err
	}
	c.clones[k] = p
	c.logger.Debug("pattern cloned", "key", key, "worker", id)
	return p, nil
}

// Compile is Get keyed by engine, options and pattern text.
func (c *Cache) Compile(ctx context.Context, kind Engine, text string, opts Options) (*Pattern, error) {
	key := fmt.Sprintf("%s\x00%d\x00%s", kind, opts, text)
	return c.Get(ctx, key, func() (*Pattern, error) {
		return CompileEngine(kind, text, opts)
	})
}

func (c *Cache) master(key string, factory func() (*Pattern, error)) (*Pattern, error) {
	c.mu.Lock()
	if p, ok := c.masters[key]; ok {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	v, err, _ := c.compiles.Do(key, func() (any, error) {
		c.mu.Lock()
		if p, ok := c.masters[key]; ok {
			c.mu.Unlock()
			return p, nil
		}
		c.mu.Unlock()

		p, err := factory()
		if err != nil {
			c.logger.Debug("pattern compile failed", "key", key, "err", err)
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			p.Close()
			return nil, ErrClosed
		}
		c.masters[key] = p
		c.logger.Debug("pattern compiled", "key", key)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Pattern), nil
}

// Release closes every clone held for worker. Call it when the worker exits.
func (c *Cache) Release(worker int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for k, p := range c.clones {
		if k.worker != worker {
			continue
		}
		errs = append(errs, p.Close())
		delete(c.clones, k)
	}
	return errors.Join(errs...)
}

// Close releases every clone and master. Further Gets fail with ErrClosed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	var errs []error
	for k, p := range c.clones {
		errs = append(errs, p.Close())
		delete(c.clones, k)
	}
	for k, p := range c.masters {
		errs = append(errs, p.Close())
		delete(c.masters, k)
	}
	return errors.Join(errs...)
}

// Len returns the number of masters and clones held.
func (c *Cache) Len() (masters, clones int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.masters), len(c.clones)
}
