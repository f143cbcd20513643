package apartment

import (
	"context"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Apartment persistence.
type Repository interface {
	domain.CatalogRepository[*Apartment]

	// ListByBuilding retrieves all non-deleted apartments of a building.
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*Apartment, error)
}
