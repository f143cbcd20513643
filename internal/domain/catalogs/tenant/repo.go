package tenant

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Tenant persistence.
type Repository interface {
	domain.CatalogRepository[*Tenant]

	// FindActiveForPeriod returns the primary tenant of an apartment
	// whose occupancy overlaps [periodStart, periodEnd], preferring the
	// most recent move-in. Returns a not-found error when nobody lived
	// there during the period.
	FindActiveForPeriod(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Tenant, error)
}
