package finance

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Income persistence.
type Repository interface {
	// Create inserts a new income record
	Create(ctx context.Context, i *Income) error

	// GetByID retrieves an income by ID
	GetByID(ctx context.Context, id id.ID) (*Income, error)

	// Update modifies an existing income (optimistic locking)
	Update(ctx context.Context, i *Income) error

	// SetDeletionMark sets or clears the deletion mark
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	// List retrieves incomes with filtering and pagination
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Income], error)

	// SumAdvancePayments sums amounts of advance-payment incomes of the
	// contract received within [periodStart, periodEnd]. Returns zero
	// when there are none.
	SumAdvancePayments(ctx context.Context, contractID id.ID, periodStart, periodEnd time.Time) (types.Money, error)
}
