package settlement

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Settlement persistence. The
// breakdown, consumption details and contract snapshot are stored as
// JSON documents alongside the scalar columns.
type Repository interface {
	// Create inserts a new settlement
	Create(ctx context.Context, s *Settlement) error

	// GetByID retrieves a settlement by ID
	GetByID(ctx context.Context, id id.ID) (*Settlement, error)

	// Update modifies an existing settlement (optimistic locking)
	Update(ctx context.Context, s *Settlement) error

	// SetDeletionMark sets or clears the deletion mark
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	// List retrieves settlements with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Settlement], error)

	// FindForPeriod returns the non-archived settlement of the
	// apartment exactly matching the period, or nil when none exists.
	FindForPeriod(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Settlement, error)
}
