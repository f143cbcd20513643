package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/catalogs/meter"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const (
	meterTable     = "cat_meters"
	meterTypeTable = "cat_meter_types"
)

// MeterRepo implements meter.Repository.
type MeterRepo struct {
	*BaseCatalogRepo[*meter.Meter]
}

// NewMeterRepo creates a new meter repository.
func NewMeterRepo(tm *postgres.TxManager) *MeterRepo {
	return &MeterRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			meterTable,
			postgres.ExtractDBColumns[meter.Meter](),
			func() *meter.Meter { return &meter.Meter{} },
		),
	}
}

func (r *MeterRepo) activeSelect() squirrel.SelectBuilder {
	return r.BaseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_archived": false})
}

// ListByBuilding retrieves all non-archived meters of a building.
func (r *MeterRepo) ListByBuilding(ctx context.Context, buildingID id.ID) ([]*meter.Meter, error) {
	q := r.activeSelect().
		Where(squirrel.Eq{"building_id": buildingID}).
		OrderBy("number ASC")

	return r.Select(ctx, q)
}

// ListByApartment retrieves all non-archived meters of an apartment.
func (r *MeterRepo) ListByApartment(ctx context.Context, apartmentID id.ID) ([]*meter.Meter, error) {
	q := r.activeSelect().
		Where(squirrel.Eq{"apartment_id": apartmentID}).
		OrderBy("number ASC")

	return r.Select(ctx, q)
}

// ListSubMeters retrieves the direct children of a meter, archived ones
// included (the callers filter).
func (r *MeterRepo) ListSubMeters(ctx context.Context, parentID id.ID) ([]*meter.Meter, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"parent_meter_id": parentID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("number ASC")

	return r.Select(ctx, q)
}

// MeterTypeRepo implements meter.TypeRepository.
type MeterTypeRepo struct {
	*BaseCatalogRepo[*meter.MeterType]
}

// NewMeterTypeRepo creates a new meter type repository.
func NewMeterTypeRepo(tm *postgres.TxManager) *MeterTypeRepo {
	return &MeterTypeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			meterTypeTable,
			postgres.ExtractDBColumns[meter.MeterType](),
			func() *meter.MeterType { return &meter.MeterType{} },
		),
	}
}
