package geo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/posting-sync/database"
)

func TestDBLocationSource(t *testing.T) {
	t.Parallel()

	pool := database.SetupTestDB(t)
	src := NewDBLocationSource(pool)
	ctx := context.Background()

	records, err := src.ListLocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, src.Upsert(ctx, LocationRecord{ID: "ber", Name: "Berlin", CountryCode: "DE", Latitude: 52.52, Longitude: 13.405}))
	require.NoError(t, src.Upsert(ctx, LocationRecord{ID: "ams", Name: "Amsterdam"}))
	require.NoError(t, src.Upsert(ctx, LocationRecord{ID: "ber", Name: "Berlin Mitte", CountryCode: "DE"}))

	records, err = src.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ams", records[0].ID)
	assert.Equal(t, LocationRecord{ID: "ber", Name: "Berlin Mitte", CountryCode: "DE"}, records[1])
}
