package janitor_test

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/expires"
	"github.com/karupanerura/expiring-cache/janitor"
	"github.com/karupanerura/expiring-cache/provider"
	"github.com/karupanerura/expiring-cache/provider/memprovider"
	"github.com/sourcegraph/conc/panics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(t *testing.T, p expiringcache.Provider[int, string], n int, opts ...expiringcache.Option[string]) {
	t.Helper()
	for i := range n {
		require.NoError(t, p.Add(t.Context(), i, expiringcache.NewCachedValue("v", opts...)))
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	defer p.Close()

	_, err := janitor.New[int, string](nil, janitor.SelectAll[int, string]())
	assert.ErrorIs(t, err, janitor.ErrNilProvider)

	_, err = janitor.New[int, string](p, nil)
	assert.ErrorIs(t, err, janitor.ErrNilSelector)

	_, err = janitor.New(p, janitor.SelectAll[int, string](), janitor.WithInterval(0))
	assert.ErrorIs(t, err, janitor.ErrInvalidInterval)

	j, err := janitor.New(p, janitor.SelectAll[int, string](), janitor.WithTimeout(time.Second), janitor.WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, janitor.DefaultInterval, j.Options().Interval)
	assert.Equal(t, time.Second, j.Options().Timeout)
	assert.NotNil(t, j.Options().Logger)
}

func TestPerformCleanup_SelectAll(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	defer p.Close()
	fill(t, p, 3, expiringcache.WithStrategy(expires.Never[string]()))

	j, err := janitor.New(p, janitor.SelectAll[int, string]())
	require.NoError(t, err)

	removed, err := j.PerformCleanup(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	n, err := p.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPerformCleanup_RemovesExactlySelected(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		entries  int
		selected int
	}{
		{name: "None", entries: 10, selected: 0},
		{name: "Some", entries: 10, selected: 4},
		{name: "All", entries: 10, selected: 10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := memprovider.New[int, string]()
			defer p.Close()
			fill(t, p, tc.entries)

			selector := func(entries iter.Seq2[int, *expiringcache.CachedValue[string]]) []int {
				var keys []int
				for key := range entries {
					if key < tc.selected {
						keys = append(keys, key)
					}
				}
				return keys
			}
			j, err := janitor.New(p, selector)
			require.NoError(t, err)

			removed, err := j.PerformCleanup(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tc.selected, removed)

			n, err := p.Len(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tc.entries-tc.selected, n)
		})
	}
}

func TestPerformCleanup_SelectExpired(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	defer p.Close()
	fill(t, p, 2, expiringcache.WithStrategy(expires.Never[string]()))
	require.NoError(t, p.Add(t.Context(), 100, expiringcache.NewCachedValue("gone", expiringcache.WithStrategy(expires.Always[string]()))))

	j, err := janitor.New(p, janitor.SelectExpired[int, string]())
	require.NoError(t, err)

	removed, err := j.PerformCleanup(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := p.Get(t.Context(), 100)
	require.NoError(t, err)
	assert.True(t, got.IsExpired())

	n, err := p.Len(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPerformCleanup_SelectorPanic(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	defer p.Close()
	fill(t, p, 3)

	j, err := janitor.New(p, func(iter.Seq2[int, *expiringcache.CachedValue[string]]) []int {
		panic("broken selector")
	})
	require.NoError(t, err)

	removed, err := j.PerformCleanup(t.Context())
	assert.Zero(t, removed)
	var recovered *panics.ErrRecovered
	require.ErrorAs(t, err, &recovered)
	assert.Equal(t, "broken selector", recovered.Value)

	n, err := p.Len(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestPerformCleanup_ClosedProvider(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	fill(t, p, 3)
	require.NoError(t, p.Close())

	j, err := janitor.New(p, janitor.SelectAll[int, string]())
	require.NoError(t, err)

	removed, err := j.PerformCleanup(t.Context())
	assert.Zero(t, removed)
	assert.ErrorIs(t, err, provider.ErrClosed)
}

func TestSelectLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	clock := expiringcache.NewManualClock(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	p := memprovider.New[int, string]()
	defer p.Close()
	fill(t, p, 5, expiringcache.WithClock[string](clock))
	require.NoError(t, p.Add(t.Context(), 99, expiringcache.NewCachedValue("x", expiringcache.WithStrategy(expires.Always[string]()))))

	// touch 3, 1, 4 in order so that 0 and 2 are the least recently used
	for _, key := range []int{3, 1, 4} {
		clock.Advance(time.Second)
		v, err := p.Get(t.Context(), key)
		require.NoError(t, err)
		v.Read()
	}

	j, err := janitor.New(p, janitor.SelectLeastRecentlyUsed[int, string](3))
	require.NoError(t, err)

	removed, err := j.PerformCleanup(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	seq, err := p.All(t.Context())
	require.NoError(t, err)
	var keys []int
	for key := range seq {
		keys = append(keys, key)
	}
	assert.ElementsMatch(t, []int{1, 3, 4}, keys)
}

func TestLaunchBackgroundCleaner(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	defer p.Close()

	var calls atomic.Int32
	selector := func(entries iter.Seq2[int, *expiringcache.CachedValue[string]]) []int {
		calls.Add(1)
		return janitor.SelectAll[int, string]()(entries)
	}
	j, err := janitor.New(p, selector, janitor.WithInterval(200*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	wait := j.LaunchBackgroundCleaner(ctx)
	fill(t, p, 3)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	n, err := p.Len(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)

	cancel()
	wait()
	stopped := calls.Load()
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "cleaner must not run after its context is canceled")
}

func TestLaunchBackgroundCleaner_Error(t *testing.T) {
	t.Parallel()

	p := memprovider.New[int, string]()
	require.NoError(t, p.Close())

	var bgErrs []error
	var mu sync.Mutex
	j, err := janitor.New(p, janitor.SelectAll[int, string](),
		janitor.WithInterval(200*time.Millisecond),
		janitor.WithOnError(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			bgErrs = append(bgErrs, err)
		}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	wait := j.LaunchBackgroundCleaner(ctx)

	time.Sleep(500 * time.Millisecond)
	cancel()
	wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bgErrs, 2)
	for _, err := range bgErrs {
		assert.True(t, errors.Is(err, provider.ErrClosed), "unexpected error: %v", err)
	}
}
