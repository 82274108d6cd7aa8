package codecprovider

import (
	"bytes"
	"context"
	"sync"

	"github.com/karupanerura/expiring-cache/provider"
)

// Item is a key and its encoded value.
type Item struct {
	Key   string
	Value []byte
}

// Store is a byte store keyed by strings.
// Implementations must be safe for concurrent use and byte-for-byte
// transparent: Get returns exactly the bytes previously passed to Set.
type Store interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetMulti stores every item or none of them.
	SetMulti(ctx context.Context, items []Item) error

	// Del removes the key and reports whether it was present.
	Del(ctx context.Context, key string) (bool, error)

	// Items returns a point-in-time copy of every stored item.
	Items(ctx context.Context) ([]Item, error)

	// Len returns the number of stored items.
	Len(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// MapStore is an in-memory Store.
type MapStore struct {
	mu     sync.RWMutex
	m      map[string][]byte
	closed bool
}

var _ Store = (*MapStore)(nil)

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{m: map[string][]byte{}}
}

// Get returns a copy of the value stored with the key.
func (s *MapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, provider.ErrClosed
	}

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a copy of the value.
func (s *MapStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return provider.ErrClosed
	}

	s.m[key] = bytes.Clone(value)
	return nil
}

// SetMulti stores a copy of every item under a single lock.
func (s *MapStore) SetMulti(_ context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return provider.ErrClosed
	}

	for _, item := range items {
		s.m[item.Key] = bytes.Clone(item.Value)
	}
	return nil
}

// Del removes the key and reports whether it was present.
func (s *MapStore) Del(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, provider.ErrClosed
	}

	_, ok := s.m[key]
	delete(s.m, key)
	return ok, nil
}

// Items returns a copy of every stored item in no particular order.
func (s *MapStore) Items(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, provider.ErrClosed
	}

	items := make([]Item, 0, len(s.m))
	for k, v := range s.m {
		items = append(items, Item{Key: k, Value: bytes.Clone(v)})
	}
	return items, nil
}

// Len returns the number of stored items.
func (s *MapStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, provider.ErrClosed
	}
	return len(s.m), nil
}

// Close drops every item. Every later operation returns provider.ErrClosed.
func (s *MapStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	clear(s.m)
	return nil
}
