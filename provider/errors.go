package provider

import "errors"

// ErrClosed is returned by every operation of a provider after Close.
var ErrClosed = errors.New("provider is closed")
