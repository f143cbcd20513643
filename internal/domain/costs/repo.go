package costs

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for CostRecord persistence.
type Repository interface {
	// Create inserts a new cost record
	Create(ctx context.Context, c *CostRecord) error

	// GetByID retrieves a cost record by ID
	GetByID(ctx context.Context, id id.ID) (*CostRecord, error)

	// Update modifies an existing cost record (optimistic locking)
	Update(ctx context.Context, c *CostRecord) error

	// SetDeletionMark sets or clears the deletion mark
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	// List retrieves cost records with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*CostRecord], error)

	// ListForSettlement returns non-archived cost records of the
	// building that qualify for the settlement period: shared records
	// and records scoped to the given apartment, where either the
	// billing period overlaps [periodStart, periodEnd] or, for records
	// without a billing period, the invoice date falls inside it.
	ListForSettlement(ctx context.Context, buildingID, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*CostRecord, error)
}
