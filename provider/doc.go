// Package provider holds what every expiringcache.Provider implementation shares.
//
// Implementations live in sub-packages: memprovider is the in-memory reference
// and codecprovider stores serialized values in a byte store. providertest
// provides the conformance suite both run.
package provider
