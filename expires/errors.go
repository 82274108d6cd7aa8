package expires

import "errors"

var (
	// ErrNilPredicate is returned by When and Func for a nil function.
	ErrNilPredicate = errors.New("expiration predicate must not be nil")

	// ErrNilStrategy is returned by Any and All when a member strategy is nil.
	ErrNilStrategy = errors.New("expiration strategy must not be nil")
)
