package catalog_repo

import (
	"mietwerk/internal/domain/catalogs/building"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const buildingTable = "cat_buildings"

// BuildingRepo implements building.Repository.
type BuildingRepo struct {
	*BaseCatalogRepo[*building.Building]
}

// NewBuildingRepo creates a new building repository.
func NewBuildingRepo(tm *postgres.TxManager) *BuildingRepo {
	return &BuildingRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			buildingTable,
			postgres.ExtractDBColumns[building.Building](),
			func() *building.Building { return &building.Building{} },
		),
	}
}
