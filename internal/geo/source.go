// Package geo loads location records and keeps them cached for lookups.
package geo

import (
	"context"
	"fmt"

	"github.com/stacklok/posting-sync/internal/db/sqlc"
)

// LocationRecord is a cached location
type LocationRecord struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

//go:generate mockgen -destination=mocks/mock_geo.go -package=mocks -source=source.go LocationSource

// LocationSource lists every known location
type LocationSource interface {
	ListLocations(ctx context.Context) ([]LocationRecord, error)
}

// DBLocationSource reads locations from Postgres
type DBLocationSource struct {
	db sqlc.DBTX
}

// NewDBLocationSource creates a LocationSource on db
func NewDBLocationSource(db sqlc.DBTX) *DBLocationSource {
	return &DBLocationSource{db: db}
}

// ListLocations implements LocationSource
func (s *DBLocationSource) ListLocations(ctx context.Context) ([]LocationRecord, error) {
	rows, err := sqlc.New(s.db).ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	records := make([]LocationRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, LocationRecord{
			ID:          row.ID,
			Name:        row.Name,
			CountryCode: row.CountryCode,
			Latitude:    row.Latitude,
			Longitude:   row.Longitude,
		})
	}
	return records, nil
}

// Upsert stores a location, replacing an existing one with the same id
func (s *DBLocationSource) Upsert(ctx context.Context, rec LocationRecord) error {
	err := sqlc.New(s.db).UpsertLocation(ctx, sqlc.UpsertLocationParams{
		ID:          rec.ID,
		Name:        rec.Name,
		CountryCode: rec.CountryCode,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert location %s: %w", rec.ID, err)
	}
	return nil
}
