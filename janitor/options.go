package janitor

import (
	"log/slog"
	"time"
)

// DefaultInterval is the default interval between background sweeps.
var DefaultInterval = time.Minute

// Options configures a Janitor.
type Options struct {
	// Interval is the time between two background sweeps.
	Interval time.Duration

	// Timeout bounds a single background sweep. Zero means no timeout.
	Timeout time.Duration

	// Logger receives sweep results and failures.
	Logger *slog.Logger

	// OnError is called with every failure of a background sweep.
	OnError func(error)
}

// Option is the interface for the options of a Janitor.
type Option interface {
	apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) apply(o *Options) {
	f(o)
}

// WithInterval sets the interval between background sweeps.
func WithInterval(interval time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Interval = interval
	})
}

// WithTimeout sets the timeout of a single background sweep.
func WithTimeout(timeout time.Duration) Option {
	return optionFunc(func(o *Options) {
		o.Timeout = timeout
	})
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		o.Logger = logger
	})
}

// WithOnError sets the handler of background sweep failures.
func WithOnError(onError func(error)) Option {
	return optionFunc(func(o *Options) {
		o.OnError = onError
	})
}

func defaultOptions() Options {
	return Options{
		Interval: DefaultInterval,
		Logger:   slog.New(slog.DiscardHandler),
		OnError:  func(error) {},
	}
}
