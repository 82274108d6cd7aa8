package expiringcache

import "errors"

var (
	// ErrNilValue is returned when a nil *CachedValue is stored.
	ErrNilValue = errors.New("cached value must not be nil")

	// ErrExpiredSentinel is returned when the Expired sentinel is stored.
	ErrExpiredSentinel = errors.New("the expired sentinel must not be stored")

	// ErrNilProvider is returned by a Cache without a Provider.
	ErrNilProvider = errors.New("provider must not be nil")

	// ErrNilLoader is returned by GetOrLoad when the loader is nil.
	ErrNilLoader = errors.New("loader must not be nil")
)
