// Package pgtypes provides Go types for PostgreSQL values that need custom conversion.
package pgtypes

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const (
	microsPerDay   = int64(24 * time.Hour / time.Microsecond)
	microsPerMonth = 30 * microsPerDay
)

// Interval represents a PostgreSQL INTERVAL as a time.Duration.
// Lock leases are passed to the database as intervals so that expiry is computed
// with the database clock rather than the clock of whichever instance holds the lease.
type Interval struct {
	Duration time.Duration
	Valid    bool
}

// NewInterval creates a valid Interval from a time.Duration
func NewInterval(d time.Duration) Interval {
	return Interval{Duration: d, Valid: true}
}

// Scan implements the sql.Scanner interface
func (i *Interval) Scan(src any) error {
	if src == nil {
		*i = Interval{}
		return nil
	}

	switch v := src.(type) {
	case pgtype.Interval:
		i.Duration = fromPGInterval(v)
		i.Valid = v.Valid
		return nil
	case string:
		var pgInterval pgtype.Interval
		if err := pgInterval.Scan(v); err != nil {
			return fmt.Errorf("failed to parse interval string %q: %w", v, err)
		}
		i.Duration = fromPGInterval(pgInterval)
		i.Valid = pgInterval.Valid
		return nil
	case []byte:
		return i.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Interval", src)
	}
}

// Value implements the driver.Valuer interface
func (i Interval) Value() (driver.Value, error) {
	if !i.Valid {
		return nil, nil
	}
	return pgtype.Interval{
		Microseconds: i.Duration.Microseconds(),
		Valid:        true,
	}, nil
}

// String returns a human-readable representation of the interval
func (i Interval) String() string {
	if !i.Valid {
		return "NULL"
	}
	return i.Duration.String()
}

// fromPGInterval converts days and months with fixed lengths (24h, 30 days)
func fromPGInterval(v pgtype.Interval) time.Duration {
	micros := v.Microseconds + int64(v.Days)*microsPerDay + int64(v.Months)*microsPerMonth
	return time.Duration(micros) * time.Microsecond
}
