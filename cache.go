package expiringcache

import (
	"context"
	"strconv"

	"github.com/karupanerura/expiring-cache/internal/keyhash"
	"github.com/karupanerura/expiring-cache/internal/panicutil"
	"golang.org/x/sync/singleflight"
)

// Cache is a value-oriented view over a Provider.
// It wraps values into CachedValues on the way in and hides expired ones on the way out.
type Cache[K KeyConstraint, V ValueConstraint] struct {
	// Provider stores the cached values. It is required.
	Provider Provider[K, V]

	// DefaultStrategy is bound to values stored by Set.
	// If nil, values stored by Set never expire.
	DefaultStrategy ExpirationStrategy[V]

	// Clock stamps the stored values. If nil, SystemClock is used.
	Clock Clock

	loads singleflight.Group
}

// Set stores the value with the default strategy.
func (c *Cache[K, V]) Set(ctx context.Context, key K, value V) error {
	return c.SetWithStrategy(ctx, key, value, c.DefaultStrategy)
}

// SetWithStrategy stores the value with the given strategy.
func (c *Cache[K, V]) SetWithStrategy(ctx context.Context, key K, value V, strategy ExpirationStrategy[V]) error {
	if c.Provider == nil {
		return ErrNilProvider
	}
	return c.Provider.Add(ctx, key, c.wrap(value, strategy))
}

func (c *Cache[K, V]) wrap(value V, strategy ExpirationStrategy[V]) *CachedValue[V] {
	clock := c.Clock
	if clock == nil {
		clock = SystemClock
	}
	return NewCachedValue(value, WithStrategy(strategy), WithClock[V](clock))
}

// Get returns the value stored with the key.
// It reports false if the key is missing or its value is expired; the read is recorded only on a hit.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if c.Provider == nil {
		return zero, false, ErrNilProvider
	}
	cv, err := c.Provider.Get(ctx, key)
	if err != nil {
		return zero, false, err
	}
	if cv.IsExpired() {
		return zero, false, nil
	}
	return cv.Read(), true, nil
}

// GetOrLoad returns the value stored with the key, loading and storing it on a miss.
// Concurrent misses for the same key share a single call of load.
// A panic in load is returned as an error.
func (c *Cache[K, V]) GetOrLoad(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	var zero V
	if load == nil {
		return zero, ErrNilLoader
	}
	if value, ok, err := c.Get(ctx, key); err != nil {
		return zero, err
	} else if ok {
		return value, nil
	}

	// flights are keyed by hash, so a flight may belong to a different key
	flightKey := strconv.Itoa(keyhash.For[K]()(key))
	for {
		var own bool
		v, _, _ := c.loads.Do(flightKey, func() (any, error) {
			own = true
			value, err := c.load(ctx, key, load)
			return flight[K, V]{key: key, value: value, err: err}, nil
		})
		f := v.(flight[K, V])
		if own || f.key == key {
			return f.value, f.err
		}
	}
}

type flight[K KeyConstraint, V ValueConstraint] struct {
	key   K
	value V
	err   error
}

func (c *Cache[K, V]) load(ctx context.Context, key K, load func(context.Context, K) (V, error)) (V, error) {
	var zero V

	// another flight may have stored the value while we were waiting
	if value, ok, err := c.Get(ctx, key); err != nil {
		return zero, err
	} else if ok {
		return value, nil
	}

	var value V
	if err := panicutil.Catch(func() (err error) {
		value, err = load(ctx, key)
		return
	}); err != nil {
		return zero, err
	}
	if err := c.Set(ctx, key, value); err != nil {
		return zero, err
	}
	return value, nil
}

// Delete removes the value stored with the key.
// It returns true if a value was removed.
func (c *Cache[K, V]) Delete(ctx context.Context, key K) (bool, error) {
	if c.Provider == nil {
		return false, ErrNilProvider
	}
	return c.Provider.Remove(ctx, key)
}
