package expiringcache

import (
	"context"
	"iter"
	"time"
)

// KeyConstraint is an interface for key constraints.
type KeyConstraint interface {
	comparable
}

// ValueConstraint is an interface for value constraints.
type ValueConstraint interface {
	any
}

// Entry is a key and its cached value.
type Entry[K KeyConstraint, V ValueConstraint] struct {
	// Key is the key of the entry.
	Key K

	// Value is the cached value associated with the key.
	Value *CachedValue[V]
}

// ExpirationStrategy decides whether a cached value should be treated as stale.
// Implementations must be safe for concurrent use and must not mutate the value.
type ExpirationStrategy[V ValueConstraint] interface {
	// IsExpired returns true if the value is expired at now.
	IsExpired(now time.Time, value *CachedValue[V]) bool
}

// ExpirationStrategyFunc is a function type that implements the ExpirationStrategy interface.
type ExpirationStrategyFunc[V ValueConstraint] func(now time.Time, value *CachedValue[V]) bool

// IsExpired calls the function.
func (f ExpirationStrategyFunc[V]) IsExpired(now time.Time, value *CachedValue[V]) bool {
	return f(now, value)
}

// Provider is an interface for a keyed store of cached values.
// Implementations must be thread-safe.
type Provider[K KeyConstraint, V ValueConstraint] interface {
	// Add stores the value with the given key.
	// If the key already exists, it overwrites the existing value.
	Add(context.Context, K, *CachedValue[V]) error

	// AddMulti stores multiple values.
	// Either every entry is stored or none is; a nil value fails the whole batch.
	AddMulti(context.Context, []Entry[K, V]) error

	// Get retrieves the value stored with the given key.
	// If the key is not found, it returns the Expired sentinel, never nil.
	// Expired entries are returned as they are; only Remove and the janitor evict them.
	Get(context.Context, K) (*CachedValue[V], error)

	// GetMulti retrieves multiple values by keys.
	// The order of the returned values matches the order of the input keys.
	GetMulti(context.Context, []K) ([]*CachedValue[V], error)

	// Remove removes the value stored with the given key.
	// It returns true if a value was removed.
	Remove(context.Context, K) (bool, error)

	// RemoveMulti removes every present key.
	// It returns true only if every key was present and removed.
	RemoveMulti(context.Context, []K) (bool, error)

	// All returns a point-in-time snapshot of every stored entry.
	// Writes made after All returns are not observed by the iterator.
	All(context.Context) (iter.Seq2[K, *CachedValue[V]], error)

	// Len returns the number of stored entries, expired ones included.
	Len(context.Context) (int, error)

	// Close releases the resources held by the provider.
	Close() error
}
