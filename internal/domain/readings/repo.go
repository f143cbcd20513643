package readings

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for MeterReading persistence.
// "Active" everywhere means not archived and not soft-deleted.
type Repository interface {
	// Create inserts a new reading
	Create(ctx context.Context, r *MeterReading) error

	// GetByID retrieves a reading by ID
	GetByID(ctx context.Context, id id.ID) (*MeterReading, error)

	// Archive marks a reading as superseded
	Archive(ctx context.Context, id id.ID) error

	// List retrieves readings with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*MeterReading], error)

	// LatestOnOrBefore returns the most recent active reading of the
	// meter dated on or before the given date, or nil when none exists.
	LatestOnOrBefore(ctx context.Context, meterID id.ID, date time.Time) (*MeterReading, error)

	// EarliestOnOrAfter returns the oldest active reading of the meter
	// dated on or after the given date, or nil when none exists.
	EarliestOnOrAfter(ctx context.Context, meterID id.ID, date time.Time) (*MeterReading, error)

	// LatestActive returns the newest active reading of the meter,
	// skipping readings whose ID is in ignoreIDs, or nil when none
	// exists.
	LatestActive(ctx context.Context, meterID id.ID, ignoreIDs []id.ID) (*MeterReading, error)

	// ListByMeter retrieves all active readings of a meter ordered by
	// reading date ascending.
	ListByMeter(ctx context.Context, meterID id.ID) ([]*MeterReading, error)
}
