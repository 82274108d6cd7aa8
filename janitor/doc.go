// Package janitor evicts cache entries that a provider does not remove on its own.
//
// A Janitor snapshots a provider, hands the snapshot to a Selector and removes
// exactly the keys the selector returns. PerformCleanup is a single synchronous
// sweep; LaunchBackgroundCleaner repeats it at the configured interval.
//
// Selectors decide what is removable. SelectExpired follows each value's own
// expiration strategy, while SelectLeastRecentlyUsed bounds the number of
// entries regardless of expiration.
package janitor
