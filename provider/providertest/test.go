// providertest package provides generic test cases for provider implementations.
package providertest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/provider"
	"golang.org/x/sync/errgroup"
)

// BenchmarkAdd benchmarks the Add method of the provider.
func BenchmarkAdd[K expiringcache.KeyConstraint, V expiringcache.ValueConstraint](b *testing.B, p expiringcache.Provider[K, V], keys []K) {
	var zero V
	ctx := b.Context()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Add(ctx, keys[i%len(keys)], expiringcache.NewCachedValue(zero))
	}
}

// Factory creates a fresh provider and the function releasing it.
type Factory func() (expiringcache.Provider[uint8, int8], func())

// TestConsistency tests the basic contract of the provider.
func TestConsistency(t *testing.T, factory Factory) {
	t.Run("AddAndGet", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		if err := p.Add(t.Context(), 1, expiringcache.NewCachedValue[int8](42)); err != nil {
			t.Fatal(err)
		}
		got, err := p.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if got.IsExpired() {
			t.Error("stored value without strategy must not be expired")
		}
		if v := got.Read(); v != 42 {
			t.Errorf("Read() = %d, want 42", v)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		got, err := p.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil {
			t.Fatal("Get must not return nil for a missing key")
		}
		if !got.IsExpired() {
			t.Error("Get on a missing key must return an expired value")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		for _, v := range []int8{1, 2, 3} {
			if err := p.Add(t.Context(), 7, expiringcache.NewCachedValue(v)); err != nil {
				t.Fatal(err)
			}
		}
		got, err := p.Get(t.Context(), 7)
		if err != nil {
			t.Fatal(err)
		}
		if v := got.Read(); v != 3 {
			t.Errorf("Read() = %d, want the last written value 3", v)
		}
		assertLen(t, p, 1)
	})

	t.Run("ParallelAddAndGet", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		patterns := []struct {
			key   uint8
			value int8
		}{
			{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5},
			{251, 124}, {252, 125}, {253, 126}, {254, 127}, {255, -128},
		}
		rand.Shuffle(len(patterns), func(i, j int) {
			patterns[i], patterns[j] = patterns[j], patterns[i]
		})

		var eg errgroup.Group
		for _, pattern := range patterns {
			eg.Go(func() error {
				got, err := p.Get(t.Context(), pattern.key)
				if err != nil {
					return err
				} else if !got.IsExpired() {
					return fmt.Errorf("unexpected exists value for key %d", pattern.key)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		eg = errgroup.Group{}
		for _, pattern := range patterns {
			eg.Go(func() error {
				return p.Add(t.Context(), pattern.key, expiringcache.NewCachedValue(pattern.value))
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		eg = errgroup.Group{}
		values := make([]int8, len(patterns))
		for i, pattern := range patterns {
			eg.Go(func() error {
				got, err := p.Get(t.Context(), pattern.key)
				if err != nil {
					return err
				}
				values[i] = got.Read()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		for i, pattern := range patterns {
			if values[i] != pattern.value {
				t.Errorf("pattern[%d] key=%d value=%d, want %d", i, pattern.key, values[i], pattern.value)
			}
		}
		assertLen(t, p, len(patterns))
	})

	t.Run("AddMultiAndGetMulti", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		entries := []expiringcache.Entry[uint8, int8]{
			{Key: 0, Value: expiringcache.NewCachedValue[int8](1)},
			{Key: 128, Value: expiringcache.NewCachedValue[int8](2)},
			{Key: 255, Value: expiringcache.NewCachedValue[int8](3)},
		}
		if err := p.AddMulti(t.Context(), entries); err != nil {
			t.Fatal(err)
		}

		got, err := p.GetMulti(t.Context(), []uint8{255, 1, 0, 128})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 4 {
			t.Fatalf("GetMulti returned %d values, want 4", len(got))
		}
		if !got[1].IsExpired() {
			t.Error("missing key must be returned as an expired value")
		}
		values := []int8{got[0].Read(), got[2].Read(), got[3].Read()}
		if df := cmp.Diff([]int8{3, 1, 2}, values); df != "" {
			t.Errorf("unexpected values (-want +got):\n%s", df)
		}
	})

	t.Run("AddMultiRejectsNilValue", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		err := p.AddMulti(t.Context(), []expiringcache.Entry[uint8, int8]{
			{Key: 1, Value: expiringcache.NewCachedValue[int8](1)},
			{Key: 2, Value: nil},
		})
		if !errors.Is(err, expiringcache.ErrNilValue) {
			t.Fatalf("expected ErrNilValue, got %v", err)
		}
		assertLen(t, p, 0)

		if err := p.Add(t.Context(), 1, nil); !errors.Is(err, expiringcache.ErrNilValue) {
			t.Errorf("expected ErrNilValue, got %v", err)
		}
	})

	t.Run("AddRejectsExpiredSentinel", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		if err := p.Add(t.Context(), 1, expiringcache.Expired[int8]()); !errors.Is(err, expiringcache.ErrExpiredSentinel) {
			t.Errorf("Add: expected ErrExpiredSentinel, got %v", err)
		}
		err := p.AddMulti(t.Context(), []expiringcache.Entry[uint8, int8]{
			{Key: 1, Value: expiringcache.NewCachedValue[int8](1)},
			{Key: 2, Value: expiringcache.Expired[int8]()},
		})
		if !errors.Is(err, expiringcache.ErrExpiredSentinel) {
			t.Errorf("AddMulti: expected ErrExpiredSentinel, got %v", err)
		}
		assertLen(t, p, 0)

		got, err := p.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsExpired() {
			t.Error("rejected key must be returned as an expired value")
		}
	})

	t.Run("RemoveTwice", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		if err := p.Add(t.Context(), 1, expiringcache.NewCachedValue[int8](1)); err != nil {
			t.Fatal(err)
		}
		for i, want := range []bool{true, false} {
			removed, err := p.Remove(t.Context(), 1)
			if err != nil {
				t.Fatal(err)
			}
			if removed != want {
				t.Errorf("Remove #%d = %v, want %v", i+1, removed, want)
			}
		}
		got, err := p.Get(t.Context(), 1)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsExpired() {
			t.Error("removed key must be returned as an expired value")
		}
	})

	t.Run("RemoveMulti", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		for k := range uint8(4) {
			if err := p.Add(t.Context(), k, expiringcache.NewCachedValue(int8(k))); err != nil {
				t.Fatal(err)
			}
		}

		all, err := p.RemoveMulti(t.Context(), []uint8{0, 1})
		if err != nil {
			t.Fatal(err)
		}
		if !all {
			t.Error("RemoveMulti of present keys must report true")
		}

		all, err = p.RemoveMulti(t.Context(), []uint8{2, 9})
		if err != nil {
			t.Fatal(err)
		}
		if all {
			t.Error("RemoveMulti with a missing key must report false")
		}
		assertLen(t, p, 1)

		got, err := p.Get(t.Context(), 3)
		if err != nil {
			t.Fatal(err)
		}
		if v := got.Read(); v != 3 {
			t.Errorf("Read() = %d, want 3", v)
		}
	})

	t.Run("AllIsSnapshot", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		for k := range uint8(10) {
			if err := p.Add(t.Context(), k, expiringcache.NewCachedValue(int8(k))); err != nil {
				t.Fatal(err)
			}
		}

		seq, err := p.All(t.Context())
		if err != nil {
			t.Fatal(err)
		}

		var eg errgroup.Group
		eg.Go(func() error {
			for k := uint8(10); k < 20; k++ {
				if err := p.Add(t.Context(), k, expiringcache.NewCachedValue(int8(k))); err != nil {
					return err
				}
			}
			_, err := p.Remove(t.Context(), 0)
			return err
		})

		got := map[uint8]int8{}
		for k, v := range seq {
			got[k] = v.Peek()
		}
		if err := eg.Wait(); err != nil {
			t.Fatal(err)
		}

		want := map[uint8]int8{}
		for k := range uint8(10) {
			want[k] = int8(k)
		}
		if df := cmp.Diff(want, got); df != "" {
			t.Errorf("unexpected snapshot (-want +got):\n%s", df)
		}
		assertLen(t, p, 19)
	})

	t.Run("Close", func(t *testing.T) {
		t.Parallel()

		p, release := factory()
		defer release()

		if err := p.Add(t.Context(), 1, expiringcache.NewCachedValue[int8](1)); err != nil {
			t.Fatal(err)
		}
		if err := p.Close(); err != nil {
			t.Fatal(err)
		}

		if err := p.Add(t.Context(), 1, expiringcache.NewCachedValue[int8](1)); !errors.Is(err, provider.ErrClosed) {
			t.Errorf("Add: expected ErrClosed, got %v", err)
		}
		if _, err := p.Get(t.Context(), 1); !errors.Is(err, provider.ErrClosed) {
			t.Errorf("Get: expected ErrClosed, got %v", err)
		}
		if _, err := p.Remove(t.Context(), 1); !errors.Is(err, provider.ErrClosed) {
			t.Errorf("Remove: expected ErrClosed, got %v", err)
		}
		if _, err := p.All(t.Context()); !errors.Is(err, provider.ErrClosed) {
			t.Errorf("All: expected ErrClosed, got %v", err)
		}
		if _, err := p.Len(t.Context()); !errors.Is(err, provider.ErrClosed) {
			t.Errorf("Len: expected ErrClosed, got %v", err)
		}
	})
}

func assertLen(t *testing.T, p expiringcache.Provider[uint8, int8], want int) {
	t.Helper()

	got, err := p.Len(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}
