package contracts

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Contract persistence.
type Repository interface {
	// Create inserts a new contract
	Create(ctx context.Context, c *Contract) error

	// GetByID retrieves a contract by ID
	GetByID(ctx context.Context, id id.ID) (*Contract, error)

	// Update modifies an existing contract (optimistic locking)
	Update(ctx context.Context, c *Contract) error

	// SetDeletionMark sets or clears the deletion mark
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	// List retrieves contracts with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Contract], error)

	// ListOverlapping returns all settleable contracts of an apartment
	// whose term overlaps [periodStart, periodEnd], ordered by start
	// date descending, then creation time descending.
	ListOverlapping(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*Contract, error)
}
