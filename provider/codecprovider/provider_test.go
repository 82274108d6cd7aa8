package codecprovider_test

import (
	"testing"
	"time"

	expiringcache "github.com/karupanerura/expiring-cache"
	"github.com/karupanerura/expiring-cache/expires"
	"github.com/karupanerura/expiring-cache/provider/codecprovider"
	"github.com/karupanerura/expiring-cache/provider/providertest"
	"github.com/karupanerura/expiring-cache/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsistency(t *testing.T) {
	t.Parallel()

	for name, s := range map[string]serializer.Serializer{
		"JSON": serializer.JSON{},
		"YAML": serializer.YAML{},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			providertest.TestConsistency(t, func() (expiringcache.Provider[uint8, int8], func()) {
				p, err := codecprovider.New[uint8, int8](codecprovider.NewMapStore(), s)
				require.NoError(t, err)
				return p, func() { _ = p.Close() }
			})
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := codecprovider.New[string, string](nil, serializer.JSON{})
	assert.ErrorIs(t, err, codecprovider.ErrNilStore)

	_, err = codecprovider.New[string, string](codecprovider.NewMapStore(), nil)
	assert.ErrorIs(t, err, codecprovider.ErrNilSerializer)
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	start := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := expiringcache.NewManualClock(start)
	p, err := codecprovider.New(codecprovider.NewMapStore(), serializer.JSON{},
		codecprovider.WithClock[string, string](clock),
		codecprovider.WithStrategy[string, string](expires.Hits[string](3)),
	)
	require.NoError(t, err)
	defer p.Close()

	v := expiringcache.NewCachedValue("example", expiringcache.WithClock[string](clock))
	clock.Advance(time.Minute)
	v.Read()
	v.Read()
	require.NoError(t, p.Add(t.Context(), "k", v))

	got, err := p.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, "example", got.Peek())
	assert.True(t, got.Created().Equal(start), "created: %v", got.Created())
	assert.True(t, got.LastTouched().Equal(start.Add(time.Minute)), "last touched: %v", got.LastTouched())
	assert.Equal(t, uint64(2), got.Hits())

	// the provider's strategy is bound to decoded values
	assert.False(t, got.IsExpired())
	got.Read()
	assert.True(t, got.IsExpired())

	// reads of a decoded copy are not written back
	again, err := p.Get(t.Context(), "k")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), again.Hits())
}

func TestDecodeError(t *testing.T) {
	t.Parallel()

	store := codecprovider.NewMapStore()
	p, err := codecprovider.New[string, int](store, serializer.JSON{})
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, store.Set(t.Context(), `"broken"`, []byte("{")))

	_, err = p.Get(t.Context(), "broken")
	assert.ErrorIs(t, err, codecprovider.ErrDecode)

	_, err = p.All(t.Context())
	assert.ErrorIs(t, err, codecprovider.ErrDecode)
}

func TestMapStore(t *testing.T) {
	t.Parallel()

	store := codecprovider.NewMapStore()
	value := []byte("value")
	require.NoError(t, store.Set(t.Context(), "k", value))

	// the store must not alias caller buffers
	value[0] = 'V'
	got, ok, err := store.Get(t.Context(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	_, ok, err = store.Get(t.Context(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetMulti(t.Context(), []codecprovider.Item{
		{Key: "a", Value: []byte("1")},
		{Key: "b", Value: []byte("2")},
	}))
	n, err := store.Len(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	items, err := store.Items(t.Context())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	removed, err := store.Del(t.Context(), "a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Del(t.Context(), "a")
	require.NoError(t, err)
	assert.False(t, removed)
}
