package memprovider

import (
	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/internal/keyhash"
)

// DefaultBucketsSize is the default number of buckets in the provider.
var DefaultBucketsSize = 256

// Option is the interface for the options of the in-memory provider.
type Option[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] interface {
	apply(*options[K, V])
}

type optionFunc[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] func(*options[K, V])

func (f optionFunc[K, V]) apply(o *options[K, V]) {
	f(o)
}

// WithKeyHash sets the function distributing keys across buckets.
// Negative hashes are accepted.
func WithKeyHash[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](f func(K) int) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.hashKey = f
	})
}

// WithBucketsSize sets the number of buckets in the provider.
// The number of buckets must be a natural number.
func WithBucketsSize[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](bucketsSize int) Option[K, V] {
	if bucketsSize <= 0 {
		panic("bucketsSize must be natural number")
	}
	return optionFunc[K, V](func(o *options[K, V]) {
		o.bucketsSize = bucketsSize
	})
}

type options[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	hashKey     func(K) int
	bucketsSize int
}

func defaultOptions[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint]() options[K, V] {
	return options[K, V]{
		hashKey:     keyhash.For[K](),
		bucketsSize: DefaultBucketsSize,
	}
}
