package meter

import (
	"context"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Meter persistence.
type Repository interface {
	domain.CatalogRepository[*Meter]

	// ListByBuilding retrieves all non-archived meters of a building.
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*Meter, error)

	// ListByApartment retrieves all non-archived meters assigned to an
	// apartment.
	ListByApartment(ctx context.Context, apartmentID id.ID) ([]*Meter, error)

	// ListSubMeters retrieves the direct children of a meter.
	ListSubMeters(ctx context.Context, parentID id.ID) ([]*Meter, error)
}

// TypeRepository defines the interface for MeterType persistence.
type TypeRepository interface {
	domain.CatalogRepository[*MeterType]
}
