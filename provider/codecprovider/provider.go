package codecprovider

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/provider"
	"github.com/karupanerura/expiring-cache/serializer"
)

type envelope[V expiringcache.ValueConstraint] struct {
	Value       V         `json:"value" yaml:"value"`
	Created     time.Time `json:"created" yaml:"created"`
	LastTouched time.Time `json:"last_touched" yaml:"last_touched"`
	Hits        uint64    `json:"hits" yaml:"hits"`
}

// Provider is an expiringcache.Provider storing serialized entries in a Store.
type Provider[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	store      Store
	serializer serializer.Serializer
	options    options[K, V]
	closed     atomic.Bool
}

var _ expiringcache.Provider[uint8, struct{}] = (*Provider[uint8, struct{}])(nil)

// New creates a provider over the store using the serializer for keys and entries.
func New[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](store Store, s serializer.Serializer, opts ...Option[K, V]) (*Provider[K, V], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if s == nil {
		return nil, ErrNilSerializer
	}

	options := defaultOptions[K, V]()
	for _, opt := range opts {
		opt.apply(&options)
	}
	return &Provider[K, V]{
		store:      store,
		serializer: s,
		options:    options,
	}, nil
}

func (p *Provider[K, V]) encodeKey(key K) (string, error) {
	b, err := p.serializer.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("%w: key %v: %w", ErrEncode, key, err)
	}
	return string(b), nil
}

func (p *Provider[K, V]) decodeKey(s string) (K, error) {
	var key K
	if err := p.serializer.Unmarshal([]byte(s), &key); err != nil {
		return key, fmt.Errorf("%w: key %q: %w", ErrDecode, s, err)
	}
	return key, nil
}

func (p *Provider[K, V]) encode(key K, value *expiringcache.CachedValue[V]) (Item, error) {
	if err := expiringcache.CheckStorable(value); err != nil {
		return Item{}, err
	}
	k, err := p.encodeKey(key)
	if err != nil {
		return Item{}, err
	}
	b, err := p.serializer.Marshal(envelope[V]{
		Value:       value.Peek(),
		Created:     value.Created(),
		LastTouched: value.LastTouched(),
		Hits:        value.Hits(),
	})
	if err != nil {
		return Item{}, fmt.Errorf("%w: key %v: %w", ErrEncode, key, err)
	}
	return Item{Key: k, Value: b}, nil
}

func (p *Provider[K, V]) decode(data []byte) (*expiringcache.CachedValue[V], error) {
	var e envelope[V]
	if err := p.serializer.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return expiringcache.RestoreCachedValue(e.Value, e.Created, e.LastTouched, e.Hits,
		expiringcache.WithStrategy(p.options.strategy),
		expiringcache.WithClock[V](p.options.clock),
	), nil
}

func (p *Provider[K, V]) checkClosed() error {
	if p.closed.Load() {
		return provider.ErrClosed
	}
	return nil
}

// Add encodes the value with its metadata and stores it.
func (p *Provider[K, V]) Add(ctx context.Context, key K, value *expiringcache.CachedValue[V]) error {
	if err := p.checkClosed(); err != nil {
		return err
	}
	item, err := p.encode(key, value)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, item.Key, item.Value)
}

// AddMulti encodes every entry before storing any of them, then stores them with Store.SetMulti.
func (p *Provider[K, V]) AddMulti(ctx context.Context, entries []expiringcache.Entry[K, V]) error {
	if err := p.checkClosed(); err != nil {
		return err
	}
	items := make([]Item, len(entries))
	for i, e := range entries {
		item, err := p.encode(e.Key, e.Value)
		if err != nil {
			return fmt.Errorf("entries[%d]: %w", i, err)
		}
		items[i] = item
	}
	return p.store.SetMulti(ctx, items)
}

// Get returns a decoded copy of the stored value, or the expiringcache.Expired sentinel.
func (p *Provider[K, V]) Get(ctx context.Context, key K) (*expiringcache.CachedValue[V], error) {
	if err := p.checkClosed(); err != nil {
		return nil, err
	}
	k, err := p.encodeKey(key)
	if err != nil {
		return nil, err
	}
	data, ok, err := p.store.Get(ctx, k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return expiringcache.Expired[V](), nil
	}
	return p.decode(data)
}

// GetMulti returns decoded copies of the stored values in the order of the keys.
func (p *Provider[K, V]) GetMulti(ctx context.Context, keys []K) ([]*expiringcache.CachedValue[V], error) {
	result := make([]*expiringcache.CachedValue[V], len(keys))
	for i, key := range keys {
		v, err := p.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// Remove removes the value stored with the key and reports whether it was present.
func (p *Provider[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	if err := p.checkClosed(); err != nil {
		return false, err
	}
	k, err := p.encodeKey(key)
	if err != nil {
		return false, err
	}
	return p.store.Del(ctx, k)
}

// RemoveMulti removes every present key and reports whether all of them were present.
// It stops at the first store error.
func (p *Provider[K, V]) RemoveMulti(ctx context.Context, keys []K) (bool, error) {
	all := true
	for _, key := range keys {
		ok, err := p.Remove(ctx, key)
		if err != nil {
			return false, err
		}
		all = all && ok
	}
	return all, nil
}

// All decodes a snapshot of the store. Any undecodable item fails the whole call.
func (p *Provider[K, V]) All(ctx context.Context) (iter.Seq2[K, *expiringcache.CachedValue[V]], error) {
	if err := p.checkClosed(); err != nil {
		return nil, err
	}
	items, err := p.store.Items(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]expiringcache.Entry[K, V], len(items))
	for i, item := range items {
		key, err := p.decodeKey(item.Key)
		if err != nil {
			return nil, err
		}
		value, err := p.decode(item.Value)
		if err != nil {
			return nil, err
		}
		entries[i] = expiringcache.Entry[K, V]{Key: key, Value: value}
	}
	return func(yield func(K, *expiringcache.CachedValue[V]) bool) {
		for _, e := range entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}, nil
}

// Len returns the number of stored entries.
func (p *Provider[K, V]) Len(ctx context.Context) (int, error) {
	if err := p.checkClosed(); err != nil {
		return 0, err
	}
	return p.store.Len(ctx)
}

// Close closes the store. Closing a closed provider is a no-op.
func (p *Provider[K, V]) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.store.Close()
}
