// Package codecprovider provides an expiringcache.Provider that keeps values
// serialized in a byte Store.
//
// Each entry is stored as an envelope holding the value and its metadata
// (creation time, last touched time, hit count), encoded by the injected
// serializer.Serializer. Strategies are code and cannot be serialized, so the
// provider binds its own strategy (see WithStrategy) to every value it decodes.
//
// Values returned by Get are decoded copies: reading them records hits on the
// copy only, never in the store. MapStore is an in-memory Store; other stores
// only need to be byte-for-byte transparent.
package codecprovider
