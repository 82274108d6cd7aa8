// Package memprovider provides the in-memory reference implementation of expiringcache.Provider.
//
// Entries are distributed across buckets, each guarded by its own RWMutex, so
// operations on keys in different buckets do not contend. Operations touching
// several buckets lock them in ascending order.
//
// The provider never evicts on its own: expired entries stay until they are
// removed explicitly or swept by a janitor.
package memprovider
