// Package expires builds expiration strategies for cached values.
//
// Each factory returns an expiringcache.ExpirationStrategy that closes over its
// parameter, so callers never write predicate closures for the common policies:
// time since creation, time since last read, read count, a wall clock deadline,
// calendar day rollover, an external condition, or the value's own judgement.
// Factories taking a predicate report a nil predicate at construction time.
package expires
