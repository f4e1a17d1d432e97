package regex

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRequiresWorker(t *testing.T) {
	c := NewCache(nil)
	defer c.Close()
	_, err := c.Get(context.Background(), "k", func() (*Pattern, error) { return Compile(`a`, Default) })
	assert.ErrorIs(t, err, ErrNoWorker)
}

func TestCachePerWorkerClones(t *testing.T) {
	skipPCRE(t)
	c := NewCache(nil)
	defer c.Close()

	var compiles atomic.Int32
	factory := func() (*Pattern, error) {
		compiles.Add(1)
		return Compile(`\w+`, Default)
	}
	ctx1 := WithWorker(context.Background(), 1)
	ctx2 := WithWorker(context.Background(), 2)

	a, err := c.Get(ctx1, "words", factory)
	require.NoError(t, err)
	again, err := c.Get(ctx1, "words", factory)
	require.NoError(t, err)
	assert.Same(t, a, again)

	b, err := c.Get(ctx2, "words", factory)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(1), compiles.Load())

	masters, clones := c.Len()
	assert.Equal(t, 1, masters)
	assert.Equal(t, 2, clones)

	require.NoError(t, c.Release(1))
	_, clones = c.Len()
	assert.Equal(t, 1, clones)
	assert.ErrorIs(t, a.Close(), ErrClosed)

	// worker 2's clone still works after worker 1 released
	m, err := b.Matcher("x y")
	require.NoError(t, err)
	defer m.Close()
	ok, err := m.Find()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheFactoryError(t *testing.T) {
	skipPCRE(t)
	c := NewCache(nil)
	defer c.Close()
	ctx := WithWorker(context.Background(), 0)
	_, err := c.Compile(ctx, PCRE, `(`, Default)
	var se *PatternSyntaxError
	assert.ErrorAs(t, err, &se)
	masters, clones := c.Len()
	assert.Zero(t, masters)
	assert.Zero(t, clones)
}

func TestCacheClosed(t *testing.T) {
	c := NewCache(nil)
	require.NoError(t, c.Close())
	_, err := c.Compile(WithWorker(context.Background(), 0), RE2, `a`, Default)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Close(), ErrClosed)
}

func TestCacheCanceledContext(t *testing.T) {
	c := NewCache(nil)
	defer c.Close()
	ctx, cancel := context.WithCancel(WithWorker(context.Background(), 0))
	cancel()
	_, err := c.Compile(ctx, RE2, `a`, Default)
	assert.ErrorIs(t, err, context.Canceled)
}

// Each worker replaces over its own subject many times through its own
// clone; every iteration must yield the same output.
func TestCacheConcurrentWorkers(t *testing.T) {
	for _, kind := range []Engine{PCRE, Regexp2, RE2, Coregex} {
		t.Run(kind.String(), func(t *testing.T) {
			if kind == PCRE {
				skipPCRE(t)
			}
			c := NewCache(nil)
			defer c.Close()

			const workers, rounds = 8, 50
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					defer c.Release(w)
					ctx := WithWorker(context.Background(), w)
					subject := strings.Repeat(fmt.Sprintf("k%d=v%d; ", w, w*w), w+1)
					var want string
					for i := 0; i < rounds; i++ {
						p, err := c.Compile(ctx, kind, `(\w+)=(\w+)`, Default)
						if err != nil {
							errs <- err
							return
						}
						m, err := p.Matcher(subject)
						if err != nil {
							errs <- err
							return
						}
						var dst []byte
						for {
							ok, err := m.Find()
							if err != nil {
								errs <- err
								return
							}
							if !ok {
								break
							}
							if dst, err = m.AppendReplacement(dst, "$2=$1"); err != nil {
								errs <- err
								return
							}
						}
						got := string(m.AppendTail(dst))
						m.Close()
						if i == 0 {
							want = got
						} else if got != want {
							errs <- fmt.Errorf("worker %d round %d: got %q, want %q", w, i, got, want)
							return
						}
					}
					if exp := strings.Repeat(fmt.Sprintf("v%d=k%d; ", w*w, w), w+1); want != exp {
						errs <- fmt.Errorf("worker %d: got %q, want %q", w, want, exp)
					}
				}(w)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Error(err)
			}
			masters, clones := c.Len()
			assert.Equal(t, 1, masters)
			assert.Zero(t, clones)
		})
	}
}
