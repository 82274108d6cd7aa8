package codecprovider

import (
	expiringcache "github.com/karupanerura/expiring-cache"
)

// Option is the interface for the options of the codec provider.
type Option[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] interface {
	apply(*options[K, V])
}

type optionFunc[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] func(*options[K, V])

func (f optionFunc[K, V]) apply(o *options[K, V]) {
	f(o)
}

// WithStrategy sets the strategy bound to every decoded value.
// By default decoded values never expire.
func WithStrategy[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](strategy expiringcache.ExpirationStrategy[V]) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.strategy = strategy
	})
}

// WithClock sets the clock bound to every decoded value.
func WithClock[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](clock expiringcache.Clock) Option[K, V] {
	return optionFunc[K, V](func(o *options[K, V]) {
		o.clock = clock
	})
}

type options[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint] struct {
	strategy expiringcache.ExpirationStrategy[V]
	clock    expiringcache.Clock
}

func defaultOptions[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint]() options[K, V] {
	return options[K, V]{
		clock: expiringcache.SystemClock,
	}
}
