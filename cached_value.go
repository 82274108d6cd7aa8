package expiringcache

import (
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// CachedValue holds a value together with the metadata expiration strategies
// decide on: the creation time, the last time the value was read and the
// number of reads.
//
// Read is the only operation that mutates the metadata. It is safe to call
// from multiple goroutines. A CachedValue must not be copied after first use.
type CachedValue[V ValueConstraint] struct {
	value    V
	strategy ExpirationStrategy[V]
	clock    Clock
	created  time.Time

	// touched is the elapsed time from created to the last read, in nanoseconds.
	touched atomic.Int64
	hits    atomic.Uint64

	sentinel bool
}

// Option is the interface for the options of a cached value.
type Option[V ValueConstraint] interface {
	apply(*CachedValue[V])
}

type optionFunc[V ValueConstraint] func(*CachedValue[V])

func (f optionFunc[V]) apply(v *CachedValue[V]) {
	f(v)
}

// WithStrategy binds the expiration strategy to the value.
// Without a strategy the value never expires.
func WithStrategy[V ValueConstraint](strategy ExpirationStrategy[V]) Option[V] {
	return optionFunc[V](func(v *CachedValue[V]) {
		v.strategy = strategy
	})
}

// WithClock sets the clock used to stamp reads and to evaluate the strategy.
// The default clock is SystemClock.
func WithClock[V ValueConstraint](clock Clock) Option[V] {
	return optionFunc[V](func(v *CachedValue[V]) {
		v.clock = clock
	})
}

// NewCachedValue creates a cached value created and last touched now, with no hits.
func NewCachedValue[V ValueConstraint](value V, opts ...Option[V]) *CachedValue[V] {
	v := &CachedValue[V]{value: value, clock: SystemClock}
	for _, opt := range opts {
		opt.apply(v)
	}
	v.created = v.clock.Now()
	return v
}

// RestoreCachedValue rebuilds a cached value from metadata recorded elsewhere,
// typically decoded from a serialized store.
// A lastTouched before created is treated as created.
func RestoreCachedValue[V ValueConstraint](value V, created, lastTouched time.Time, hits uint64, opts ...Option[V]) *CachedValue[V] {
	v := &CachedValue[V]{value: value, clock: SystemClock}
	for _, opt := range opts {
		opt.apply(v)
	}
	v.created = created
	if elapsed := lastTouched.Sub(created); elapsed > 0 {
		v.touched.Store(int64(elapsed))
	}
	v.hits.Store(hits)
	return v
}

var sentinels sync.Map // map[reflect.Type]any

// Expired returns the shared sentinel that stands for a missing value.
// Its IsExpired always reports true, it has no strategy and reading it
// returns the zero value without recording a hit.
func Expired[V ValueConstraint]() *CachedValue[V] {
	typ := reflect.TypeFor[V]()
	if v, ok := sentinels.Load(typ); ok {
		return v.(*CachedValue[V])
	}
	v, _ := sentinels.LoadOrStore(typ, &CachedValue[V]{clock: SystemClock, sentinel: true})
	return v.(*CachedValue[V])
}

// CheckStorable returns an error if v cannot be stored by a provider:
// ErrNilValue for nil and ErrExpiredSentinel for the Expired sentinel.
func CheckStorable[V ValueConstraint](v *CachedValue[V]) error {
	if v == nil {
		return ErrNilValue
	}
	if v.sentinel {
		return ErrExpiredSentinel
	}
	return nil
}

// Read returns the value and records the read: the hit count is incremented
// and the last touched time is set to now.
func (v *CachedValue[V]) Read() V {
	if v.sentinel {
		return v.value
	}
	v.hits.Add(1)
	v.touch(v.clock.Now())
	return v.value
}

// touch moves the last touched time forward to now. It never moves it back,
// so concurrent readers with skewed clock readings keep Created <= LastTouched.
func (v *CachedValue[V]) touch(now time.Time) {
	elapsed := int64(now.Sub(v.created))
	for {
		current := v.touched.Load()
		if elapsed <= current || v.touched.CompareAndSwap(current, elapsed) {
			return
		}
	}
}

// Peek returns the value without recording a read.
func (v *CachedValue[V]) Peek() V {
	return v.value
}

// Created returns the time the value was created.
func (v *CachedValue[V]) Created() time.Time {
	return v.created
}

// LastTouched returns the time the value was last read, or the creation time
// if it has never been read.
func (v *CachedValue[V]) LastTouched() time.Time {
	return v.created.Add(time.Duration(v.touched.Load()))
}

// Hits returns the number of times the value was read.
func (v *CachedValue[V]) Hits() uint64 {
	return v.hits.Load()
}

// Strategy returns the bound expiration strategy, or nil.
func (v *CachedValue[V]) Strategy() ExpirationStrategy[V] {
	return v.strategy
}

// Clock returns the clock of the value.
func (v *CachedValue[V]) Clock() Clock {
	return v.clock
}

// IsExpired reports whether the value is expired according to its strategy.
// The sentinel is always expired; a value without a strategy never expires.
func (v *CachedValue[V]) IsExpired() bool {
	if v.sentinel {
		return true
	}
	if v.strategy == nil {
		return false
	}
	return v.strategy.IsExpired(v.clock.Now(), v)
}
