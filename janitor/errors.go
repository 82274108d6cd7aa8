package janitor

import "errors"

var (
	// ErrNilProvider is returned by New without a provider.
	ErrNilProvider = errors.New("janitor: provider must not be nil")

	// ErrNilSelector is returned by New without a selector.
	ErrNilSelector = errors.New("janitor: selector must not be nil")

	// ErrInvalidInterval is returned by New for a non-positive interval.
	ErrInvalidInterval = errors.New("janitor: interval must be positive")
)
