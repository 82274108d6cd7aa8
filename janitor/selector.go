package janitor

import (
	"cmp"
	"iter"
	"slices"

	expiringcache "github.com/karupanerura/expiring-cache"
)

// SelectExpired selects every entry whose own expiration strategy reports it expired.
func SelectExpired[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint]() Selector[K, V] {
	return func(entries iter.Seq2[K, *expiringcache.CachedValue[V]]) []K {
		var keys []K
		for key, value := range entries {
			if value.IsExpired() {
				keys = append(keys, key)
			}
		}
		return keys
	}
}

// SelectAll selects every entry.
func SelectAll[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint]() Selector[K, V] {
	return func(entries iter.Seq2[K, *expiringcache.CachedValue[V]]) []K {
		var keys []K
		for key := range entries {
			keys = append(keys, key)
		}
		return keys
	}
}

// SelectLeastRecentlyUsed selects the least recently touched entries beyond capacity.
// Expired entries are always selected and do not count against the capacity.
func SelectLeastRecentlyUsed[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](capacity int) Selector[K, V] {
	capacity = max(capacity, 0)
	return func(entries iter.Seq2[K, *expiringcache.CachedValue[V]]) []K {
		var keys []K
		var alive []expiringcache.Entry[K, V]
		for key, value := range entries {
			if value.IsExpired() {
				keys = append(keys, key)
				continue
			}
			alive = append(alive, expiringcache.Entry[K, V]{Key: key, Value: value})
		}
		if len(alive) <= capacity {
			return keys
		}

		slices.SortFunc(alive, func(a, b expiringcache.Entry[K, V]) int {
			return cmp.Compare(a.Value.LastTouched().UnixNano(), b.Value.LastTouched().UnixNano())
		})
		for _, e := range alive[:len(alive)-capacity] {
			keys = append(keys, e.Key)
		}
		return keys
	}
}
