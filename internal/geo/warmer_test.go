package geo_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/posting-sync/internal/geo"
	"github.com/stacklok/posting-sync/internal/geo/mocks"
)

var locations = []geo.LocationRecord{
	{ID: "ber", Name: "Berlin", CountryCode: "DE", Latitude: 52.52, Longitude: 13.405},
	{ID: "lis", Name: "Lisbon", CountryCode: "PT", Latitude: 38.72, Longitude: -9.139},
	{ID: "nyc", Name: "New York", CountryCode: "US", Latitude: 40.71, Longitude: -74.006},
}

func newRedisCache(t *testing.T) (*geo.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return geo.NewRedisCache(client), mr
}

func TestWarmUp_Twice(t *testing.T) {
	t.Parallel()

	caches := map[string]func(t *testing.T) geo.Cache{
		"redis": func(t *testing.T) geo.Cache {
			c, _ := newRedisCache(t)
			return c
		},
		"memory": func(*testing.T) geo.Cache { return geo.NewMemoryCache() },
	}

	for name, newCache := range caches {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			source := mocks.NewMockLocationSource(ctrl)
			source.EXPECT().ListLocations(gomock.Any()).Return(locations, nil).Times(2)

			cache := newCache(t)
			warmer := geo.NewWarmer(source, cache)
			ctx := context.Background()

			first, err := warmer.WarmUp(ctx)
			require.NoError(t, err)
			assert.Equal(t, 3, first.Total)
			assert.Equal(t, 3, first.Cached)
			assert.Zero(t, first.Existing)

			snapshot := make(map[string][]byte)
			for _, loc := range locations {
				v, err := cache.Get(ctx, warmer.Key(loc.ID))
				require.NoError(t, err)
				snapshot[loc.ID] = v
			}

			second, err := warmer.WarmUp(ctx)
			require.NoError(t, err)
			assert.Zero(t, second.Cached)
			assert.Equal(t, 3, second.Existing)

			for _, loc := range locations {
				v, err := cache.Get(ctx, warmer.Key(loc.ID))
				require.NoError(t, err)
				assert.Equal(t, snapshot[loc.ID], v)
			}

			var berlin geo.LocationRecord
			require.NoError(t, json.Unmarshal(snapshot["ber"], &berlin))
			assert.Equal(t, locations[0], berlin)
		})
	}
}

func TestWarmUp_KeepsExistingValues(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockLocationSource(ctrl)
	source.EXPECT().ListLocations(gomock.Any()).Return(locations, nil)

	cache, mr := newRedisCache(t)
	require.NoError(t, mr.Set("geo:location:lis", "hand-written"))

	result, err := geo.NewWarmer(source, cache).WarmUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Cached)
	assert.Equal(t, 1, result.Existing)

	got, err := mr.Get("geo:location:lis")
	require.NoError(t, err)
	assert.Equal(t, "hand-written", got)
	assert.Zero(t, mr.TTL("geo:location:ber"), "keys never expire")
}

func TestWarmUp_SerializationFailureIsSkipped(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockLocationSource(ctrl)
	source.EXPECT().ListLocations(gomock.Any()).Return(locations, nil)

	cache := geo.NewMemoryCache()
	marshal := func(r geo.LocationRecord) ([]byte, error) {
		if r.ID == "lis" {
			return nil, errors.New("unsupported value")
		}
		return json.Marshal(r)
	}

	result, err := geo.NewWarmer(source, cache, geo.WithMarshaler(marshal), geo.WithKeyPrefix("loc:")).
		WarmUp(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Cached)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, cache.Len())

	_, err = cache.Get(context.Background(), "loc:lis")
	assert.ErrorIs(t, err, geo.ErrCacheMiss)
}

func TestWarmUp_SourceError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockLocationSource(ctrl)
	source.EXPECT().ListLocations(gomock.Any()).Return(nil, errors.New("db down"))

	_, err := geo.NewWarmer(source, geo.NewMemoryCache()).WarmUp(context.Background())
	assert.ErrorContains(t, err, "failed to load locations")
}

func TestWarmUp_CacheUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	source := mocks.NewMockLocationSource(ctrl)
	source.EXPECT().ListLocations(gomock.Any()).Return(locations, nil)

	cache, mr := newRedisCache(t)
	mr.Close()

	result, err := geo.NewWarmer(source, cache).WarmUp(context.Background())
	require.Error(t, err)
	assert.Zero(t, result.Cached)
}

func TestSerializationFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("NaN")
	err := &geo.SerializationFailure{LocationID: "x", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "location x")
}

func TestCacheGet_Miss(t *testing.T) {
	t.Parallel()

	redisCache, _ := newRedisCache(t)
	for _, c := range []geo.Cache{redisCache, geo.NewMemoryCache()} {
		_, err := c.Get(context.Background(), "absent")
		assert.ErrorIs(t, err, geo.ErrCacheMiss)
	}
}

func TestWarmUp_ConcurrentInstancesWriteEachKeyOnce(t *testing.T) {
	t.Parallel()

	const instances = 8
	ctrl := gomock.NewController(t)
	source := mocks.NewMockLocationSource(ctrl)
	source.EXPECT().ListLocations(gomock.Any()).Return(locations, nil).Times(instances)

	cache, _ := newRedisCache(t)

	var cached, existing atomic.Int64
	var wg sync.WaitGroup
	for range instances {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := geo.NewWarmer(source, cache).WarmUp(context.Background())
			assert.NoError(t, err)
			cached.Add(int64(result.Cached))
			existing.Add(int64(result.Existing))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(len(locations)), cached.Load())
	assert.Equal(t, int64((instances-1)*len(locations)), existing.Load())
}

func TestCacheSetNX(t *testing.T) {
	t.Parallel()

	redisCache, _ := newRedisCache(t)
	for name, c := range map[string]geo.Cache{"redis": redisCache, "memory": geo.NewMemoryCache()} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			written, err := c.SetNX(ctx, "geo:location:ber", []byte("first"))
			require.NoError(t, err)
			assert.True(t, written)

			written, err = c.SetNX(ctx, "geo:location:ber", []byte("second"))
			require.NoError(t, err)
			assert.False(t, written)

			got, err := c.Get(ctx, "geo:location:ber")
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), got)
		})
	}
}
