package codecprovider

import "errors"

var (
	// ErrNilStore is returned by New without a store.
	ErrNilStore = errors.New("store must not be nil")

	// ErrNilSerializer is returned by New without a serializer.
	ErrNilSerializer = errors.New("serializer must not be nil")

	// ErrEncode wraps failures to serialize a key or an entry.
	ErrEncode = errors.New("unable to encode entry")

	// ErrDecode wraps failures to deserialize a stored key or entry.
	ErrDecode = errors.New("unable to decode entry")
)
