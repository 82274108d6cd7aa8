package janitor

import (
	"context"
	"fmt"
	"iter"
	"time"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/internal/panicutil"
	"github.com/sourcegraph/conc"
)

// Selector picks the keys to remove from a snapshot of a provider.
type Selector[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] func(entries iter.Seq2[K, *expiringcache.CachedValue[V]]) []K

// Janitor removes the entries chosen by its selector from a provider.
// It does not own the provider: closing the provider is up to the caller.
type Janitor[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	provider expiringcache.Provider[K, V]
	selector Selector[K, V]
	options  Options
}

// New creates a Janitor sweeping the provider with the selector.
func New[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](provider expiringcache.Provider[K, V], selector Selector[K, V], opts ...Option) (*Janitor[K, V], error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if selector == nil {
		return nil, ErrNilSelector
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt.apply(&options)
	}
	if options.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if options.Logger == nil {
		options.Logger = defaultOptions().Logger
	}
	if options.OnError == nil {
		options.OnError = defaultOptions().OnError
	}

	return &Janitor[K, V]{
		provider: provider,
		selector: selector,
		options:  options,
	}, nil
}

// Options returns the options of the janitor, for schedulers driving PerformCleanup.
func (j *Janitor[K, V]) Options() Options {
	return j.options
}

// PerformCleanup runs a single sweep and returns the number of removed entries.
// A panicking selector is reported as an error and nothing is removed.
// On a removal failure the entries removed so far are counted.
func (j *Janitor[K, V]) PerformCleanup(ctx context.Context) (int, error) {
	entries, err := j.provider.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("janitor: snapshot: %w", err)
	}

	var keys []K
	if err := panicutil.Catch(func() error {
		keys = j.selector(entries)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("janitor: select: %w", err)
	}

	var removed int
	for _, key := range keys {
		ok, err := j.provider.Remove(ctx, key)
		if err != nil {
			return removed, fmt.Errorf("janitor: remove %v: %w", key, err)
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// LaunchBackgroundCleaner starts sweeping every interval until ctx is canceled.
// Failures are logged and passed to the OnError handler; they never stop the loop.
// The returned function waits for the cleaner to stop.
func (j *Janitor[K, V]) LaunchBackgroundCleaner(ctx context.Context) (wait func()) {
	var wg conc.WaitGroup
	wg.Go(func() {
		j.poll(ctx)
	})
	return wg.Wait
}

// poll sweeps the provider at the fixed interval.
func (j *Janitor[K, V]) poll(ctx context.Context) {
	ticker := time.NewTicker(j.options.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor[K, V]) sweep(ctx context.Context) {
	if j.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.options.Timeout)
		defer cancel()
	}

	started := time.Now()
	removed, err := j.PerformCleanup(ctx)
	if err != nil {
		j.options.Logger.WarnContext(ctx, "cleanup failed", "removed", removed, "error", err)
		j.options.OnError(err)
		return
	}
	j.options.Logger.DebugContext(ctx, "cleanup finished", "removed", removed, "elapsed", time.Since(started))
}
