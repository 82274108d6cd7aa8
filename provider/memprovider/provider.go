package memprovider

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/provider"
)

type bucket[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	m  map[K]*expiringcache.CachedValue[V]
	mu sync.RWMutex
}

// Provider is a thread-safe in-memory expiringcache.Provider.
type Provider[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	buckets []*bucket[K, V]
	options options[K, V]
	closed  atomic.Bool
}

var _ expiringcache.Provider[uint8, struct{}] = (*Provider[uint8, struct{}])(nil)

// New creates a new in-memory provider.
func New[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](opts ...Option[K, V]) *Provider[K, V] {
	options := defaultOptions[K, V]()
	for _, opt := range opts {
		opt.apply(&options)
	}

	buckets := make([]*bucket[K, V], options.bucketsSize)
	for i := range buckets {
		buckets[i] = &bucket[K, V]{m: map[K]*expiringcache.CachedValue[V]{}}
	}
	return &Provider[K, V]{
		buckets: buckets,
		options: options,
	}
}

// resolveIndex returns the index of the bucket that corresponds to the given key.
func (p *Provider[K, V]) resolveIndex(key K) int {
	index := p.options.hashKey(key) % len(p.buckets)
	if index < 0 {
		index *= -1
	}
	return index
}

// resolveBuckets returns the bucket index of every key and the distinct indexes in ascending order.
func (p *Provider[K, V]) resolveBuckets(keys []K) (indexes []int, buckets []int) {
	indexes = make([]int, len(keys))
	seen := make(map[int]struct{}, len(keys))
	for i, key := range keys {
		index := p.resolveIndex(key)
		indexes[i] = index
		if _, ok := seen[index]; !ok {
			buckets = append(buckets, index)
			seen[index] = struct{}{}
		}
	}
	slices.Sort(buckets)
	return
}

// lockBuckets locks the buckets in the given ascending order and returns the unlock function.
func (p *Provider[K, V]) lockBuckets(indexes []int) (unlock func()) {
	for _, i := range indexes {
		p.buckets[i].mu.Lock()
	}
	return func() {
		for _, i := range slices.Backward(indexes) {
			p.buckets[i].mu.Unlock()
		}
	}
}

// rlockBuckets is like lockBuckets but takes read locks.
func (p *Provider[K, V]) rlockBuckets(indexes []int) (runlock func()) {
	for _, i := range indexes {
		p.buckets[i].mu.RLock()
	}
	return func() {
		for _, i := range slices.Backward(indexes) {
			p.buckets[i].mu.RUnlock()
		}
	}
}

func (p *Provider[K, V]) allIndexes() []int {
	indexes := make([]int, len(p.buckets))
	for i := range indexes {
		indexes[i] = i
	}
	return indexes
}

// Add stores the value with the given key, overwriting any previous value.
func (p *Provider[K, V]) Add(_ context.Context, key K, value *expiringcache.CachedValue[V]) error {
	if err := expiringcache.CheckStorable(value); err != nil {
		return err
	}

	bucket := p.buckets[p.resolveIndex(key)]
	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	if p.closed.Load() {
		return provider.ErrClosed
	}

	bucket.m[key] = value
	return nil
}

// AddMulti stores every entry, or none of them if any value cannot be stored.
func (p *Provider[K, V]) AddMulti(_ context.Context, entries []expiringcache.Entry[K, V]) error {
	keys := make([]K, len(entries))
	for i, e := range entries {
		if err := expiringcache.CheckStorable(e.Value); err != nil {
			return fmt.Errorf("entries[%d]: %w", i, err)
		}
		keys[i] = e.Key
	}

	indexes, buckets := p.resolveBuckets(keys)
	defer p.lockBuckets(buckets)()
	if p.closed.Load() {
		return provider.ErrClosed
	}

	for i, e := range entries {
		p.buckets[indexes[i]].m[e.Key] = e.Value
	}
	return nil
}

// Get returns the value stored with the key, or the expiringcache.Expired sentinel.
func (p *Provider[K, V]) Get(_ context.Context, key K) (*expiringcache.CachedValue[V], error) {
	bucket := p.buckets[p.resolveIndex(key)]
	bucket.mu.RLock()
	defer bucket.mu.RUnlock()
	if p.closed.Load() {
		return nil, provider.ErrClosed
	}

	if v, ok := bucket.m[key]; ok {
		return v, nil
	}
	return expiringcache.Expired[V](), nil
}

// GetMulti returns the values stored with the keys in the order of the keys.
func (p *Provider[K, V]) GetMulti(_ context.Context, keys []K) ([]*expiringcache.CachedValue[V], error) {
	indexes, buckets := p.resolveBuckets(keys)
	defer p.rlockBuckets(buckets)()
	if p.closed.Load() {
		return nil, provider.ErrClosed
	}

	result := make([]*expiringcache.CachedValue[V], len(keys))
	for i, key := range keys {
		if v, ok := p.buckets[indexes[i]].m[key]; ok {
			result[i] = v
		} else {
			result[i] = expiringcache.Expired[V]()
		}
	}
	return result, nil
}

// Remove removes the value stored with the key and reports whether it was present.
func (p *Provider[K, V]) Remove(_ context.Context, key K) (bool, error) {
	bucket := p.buckets[p.resolveIndex(key)]
	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	if p.closed.Load() {
		return false, provider.ErrClosed
	}

	_, ok := bucket.m[key]
	delete(bucket.m, key)
	return ok, nil
}

// RemoveMulti removes every present key and reports whether all of them were present.
func (p *Provider[K, V]) RemoveMulti(_ context.Context, keys []K) (bool, error) {
	indexes, buckets := p.resolveBuckets(keys)
	defer p.lockBuckets(buckets)()
	if p.closed.Load() {
		return false, provider.ErrClosed
	}

	all := true
	for i, key := range keys {
		bucket := p.buckets[indexes[i]]
		if _, ok := bucket.m[key]; ok {
			delete(bucket.m, key)
		} else {
			all = false
		}
	}
	return all, nil
}

// All returns a snapshot of every entry taken while holding every bucket's read lock.
func (p *Provider[K, V]) All(_ context.Context) (iter.Seq2[K, *expiringcache.CachedValue[V]], error) {
	entries, err := p.snapshot()
	if err != nil {
		return nil, err
	}
	return func(yield func(K, *expiringcache.CachedValue[V]) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}, nil
}

func (p *Provider[K, V]) snapshot() ([]expiringcache.Entry[K, V], error) {
	defer p.rlockBuckets(p.allIndexes())()
	if p.closed.Load() {
		return nil, provider.ErrClosed
	}

	var size int
	for _, b := range p.buckets {
		size += len(b.m)
	}
	entries := make([]expiringcache.Entry[K, V], 0, size)
	for _, b := range p.buckets {
		for k, v := range b.m {
			entries = append(entries, expiringcache.Entry[K, V]{Key: k, Value: v})
		}
	}
	return entries, nil
}

// Len returns the number of stored entries.
func (p *Provider[K, V]) Len(_ context.Context) (int, error) {
	defer p.rlockBuckets(p.allIndexes())()
	if p.closed.Load() {
		return 0, provider.ErrClosed
	}

	var size int
	for _, b := range p.buckets {
		size += len(b.m)
	}
	return size, nil
}

// Close drops every entry. Every later operation returns provider.ErrClosed.
// Closing a closed provider is a no-op.
func (p *Provider[K, V]) Close() error {
	defer p.lockBuckets(p.allIndexes())()
	if p.closed.Swap(true) {
		return nil
	}
	for _, b := range p.buckets {
		clear(b.m)
	}
	return nil
}
