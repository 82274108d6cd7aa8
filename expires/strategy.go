package expires

import (
	"slices"
	"time"

	expiringcache "github.com/karupanerura/expiring-cache"
)

// Always returns a strategy under which every value is expired.
func Always[V expiringcache.ValueConstraint]() expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(time.Time, *expiringcache.CachedValue[V]) bool {
		return true
	})
}

// Never returns a strategy under which no value expires.
func Never[V expiringcache.ValueConstraint]() expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(time.Time, *expiringcache.CachedValue[V]) bool {
		return false
	})
}

// TimeSpan returns a strategy that expires a value once d has elapsed since it was created.
// A non-positive d expires values immediately.
func TimeSpan[V expiringcache.ValueConstraint](d time.Duration) expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, v *expiringcache.CachedValue[V]) bool {
		return now.Sub(v.Created()) >= d
	})
}

// NotUsedIn returns a strategy that expires a value once d has elapsed since it was last read.
func NotUsedIn[V expiringcache.ValueConstraint](d time.Duration) expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, v *expiringcache.CachedValue[V]) bool {
		return now.Sub(v.LastTouched()) >= d
	})
}

// Hits returns a strategy that expires a value once it has been read n times.
func Hits[V expiringcache.ValueConstraint](n uint64) expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(_ time.Time, v *expiringcache.CachedValue[V]) bool {
		return v.Hits() >= n
	})
}

// At returns a strategy that expires every value at the wall clock time t.
func At[V expiringcache.ValueConstraint](t time.Time) expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, _ *expiringcache.CachedValue[V]) bool {
		return !now.Before(t)
	})
}

// NextDay returns a strategy that expires a value when the local calendar day
// it was created on is over.
func NextDay[V expiringcache.ValueConstraint]() expiringcache.ExpirationStrategy[V] {
	return NextDayIn[V](time.Local)
}

// NextDayIn is like NextDay but uses the calendar of loc.
func NextDayIn[V expiringcache.ValueConstraint](loc *time.Location) expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, v *expiringcache.CachedValue[V]) bool {
		return startOfDay(now.In(loc)).After(startOfDay(v.Created().In(loc)))
	})
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// When returns a strategy that expires every value while cond reports true.
// cond is evaluated on every expiration check.
func When[V expiringcache.ValueConstraint](cond func() bool) (expiringcache.ExpirationStrategy[V], error) {
	if cond == nil {
		return nil, ErrNilPredicate
	}
	return expiringcache.ExpirationStrategyFunc[V](func(time.Time, *expiringcache.CachedValue[V]) bool {
		return cond()
	}), nil
}

// Func returns a strategy backed by an arbitrary predicate over the current time and the value.
func Func[V expiringcache.ValueConstraint](predicate func(now time.Time, v *expiringcache.CachedValue[V]) bool) (expiringcache.ExpirationStrategy[V], error) {
	if predicate == nil {
		return nil, ErrNilPredicate
	}
	return expiringcache.ExpirationStrategyFunc[V](predicate), nil
}

// SelfExpirer is implemented by values that know when they are stale.
type SelfExpirer[V expiringcache.ValueConstraint] interface {
	SelfIsExpired(entry *expiringcache.CachedValue[V]) bool
}

// Introspect returns a strategy that asks the cached value itself.
// The value is inspected with Peek, so checking expiration does not count as a hit.
func Introspect[V SelfExpirer[V]]() expiringcache.ExpirationStrategy[V] {
	return expiringcache.ExpirationStrategyFunc[V](func(_ time.Time, v *expiringcache.CachedValue[V]) bool {
		return v.Peek().SelfIsExpired(v)
	})
}

// Any returns a strategy that expires a value once any of the strategies does.
// Without strategies nothing expires.
func Any[V expiringcache.ValueConstraint](strategies ...expiringcache.ExpirationStrategy[V]) (expiringcache.ExpirationStrategy[V], error) {
	if err := validate(strategies); err != nil {
		return nil, err
	}
	strategies = slices.Clone(strategies)
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, v *expiringcache.CachedValue[V]) bool {
		for _, s := range strategies {
			if s.IsExpired(now, v) {
				return true
			}
		}
		return false
	}), nil
}

// All returns a strategy that expires a value only once every strategy does.
// Without strategies nothing expires.
func All[V expiringcache.ValueConstraint](strategies ...expiringcache.ExpirationStrategy[V]) (expiringcache.ExpirationStrategy[V], error) {
	if err := validate(strategies); err != nil {
		return nil, err
	}
	strategies = slices.Clone(strategies)
	return expiringcache.ExpirationStrategyFunc[V](func(now time.Time, v *expiringcache.CachedValue[V]) bool {
		if len(strategies) == 0 {
			return false
		}
		for _, s := range strategies {
			if !s.IsExpired(now, v) {
				return false
			}
		}
		return true
	}), nil
}

func validate[V expiringcache.ValueConstraint](strategies []expiringcache.ExpirationStrategy[V]) error {
	for _, s := range strategies {
		if s == nil {
			return ErrNilStrategy
		}
	}
	return nil
}
