package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/catalogs/apartment"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const apartmentTable = "cat_apartments"

// ApartmentRepo implements apartment.Repository.
type ApartmentRepo struct {
	*BaseCatalogRepo[*apartment.Apartment]
}

// NewApartmentRepo creates a new apartment repository.
func NewApartmentRepo(tm *postgres.TxManager) *ApartmentRepo {
	return &ApartmentRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			apartmentTable,
			postgres.ExtractDBColumns[apartment.Apartment](),
			func() *apartment.Apartment { return &apartment.Apartment{} },
		),
	}
}

// ListByBuilding retrieves all non-deleted apartments of a building.
func (r *ApartmentRepo) ListByBuilding(ctx context.Context, buildingID id.ID) ([]*apartment.Apartment, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"building_id": buildingID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("number ASC")

	return r.Select(ctx, q)
}
