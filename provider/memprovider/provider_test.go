package memprovider_test

import (
	"math"
	"strconv"
	"testing"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/expires"
	"github.com/karupanerura/expiring-cache/provider/memprovider"
	"github.com/karupanerura/expiring-cache/provider/providertest"
)

func BenchmarkAdd(b *testing.B) {
	keys := make([]uint8, 1024)
	for i := range keys {
		keys[i] = uint8(i % 256)
	}
	b.Run("SingleBucket", func(b *testing.B) {
		providertest.BenchmarkAdd(b, memprovider.New(memprovider.WithBucketsSize[uint8, int8](1)), keys)
	})
	b.Run("MultipleBucket", func(b *testing.B) {
		providertest.BenchmarkAdd(b, memprovider.New[uint8, int8](), keys)
	})
}

func TestConsistency(t *testing.T) {
	t.Parallel()
	for i := range 7 {
		t.Run(strconv.Itoa(i+1), func(t *testing.T) {
			t.Parallel()

			providertest.TestConsistency(t, func() (expiringcache.Provider[uint8, int8], func()) {
				p := memprovider.New(memprovider.WithBucketsSize[uint8, int8](i + 1))
				return p, func() { _ = p.Close() }
			})
		})
	}
}

func TestKeyHash(t *testing.T) {
	t.Parallel()
	for i := range 7 {
		t.Run(strconv.Itoa(i+1), func(t *testing.T) {
			t.Parallel()

			providertest.TestConsistency(t, func() (expiringcache.Provider[uint8, int8], func()) {
				bucketSize := i + 1
				p := memprovider.New(
					memprovider.WithBucketsSize[uint8, int8](bucketSize),
					memprovider.WithKeyHash[uint8, int8](func(key uint8) int {
						return -int(key) // negative hashes must be handled too
					}),
				)
				return p, func() { _ = p.Close() }
			})
		})
	}
}

func TestWithBucketsSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, -1} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("WithBucketsSize(%d) must panic", size)
				}
			}()
			memprovider.WithBucketsSize[uint8, int8](size)
		}()
	}
}

func TestGetKeepsExpiredEntries(t *testing.T) {
	t.Parallel()

	p := memprovider.New[string, string]()
	defer p.Close()

	v := expiringcache.NewCachedValue("stale", expiringcache.WithStrategy(expires.Always[string]()))
	if err := p.Add(t.Context(), "k", v); err != nil {
		t.Fatal(err)
	}

	got, err := p.Get(t.Context(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if got != v {
		t.Error("Get must return the stored value itself")
	}
	if !got.IsExpired() {
		t.Error("expected the stored value to be expired")
	}

	n, err := p.Len(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Get must not evict expired entries, Len() = %d", n)
	}
}

func TestReadsAreSharedBetweenGets(t *testing.T) {
	t.Parallel()

	p := memprovider.New[string, string]()
	defer p.Close()

	if err := p.Add(t.Context(), "k", expiringcache.NewCachedValue("v")); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		got, err := p.Get(t.Context(), "k")
		if err != nil {
			t.Fatal(err)
		}
		got.Read()
	}

	got, err := p.Get(t.Context(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hits() != 3 {
		t.Errorf("Hits() = %d, want 3", got.Hits())
	}
}

func TestEqualFloatKeysShareAnEntry(t *testing.T) {
	t.Parallel()

	p := memprovider.New[float64, string]()
	defer p.Close()

	negZero := math.Copysign(0, -1)
	if err := p.Add(t.Context(), 0, expiringcache.NewCachedValue("zero")); err != nil {
		t.Fatal(err)
	}
	got, err := p.Get(t.Context(), negZero)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsExpired() {
		t.Fatal("Get(-0) must find the entry stored with 0")
	}
	if v := got.Peek(); v != "zero" {
		t.Errorf("Peek() = %q, want %q", v, "zero")
	}

	removed, err := p.Remove(t.Context(), negZero)
	if err != nil {
		t.Fatal(err)
	}
	if !removed {
		t.Error("Remove(-0) must remove the entry stored with 0")
	}
}
