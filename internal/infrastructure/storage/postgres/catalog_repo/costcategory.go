package catalog_repo

import (
	"mietwerk/internal/domain/catalogs/costcategory"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const costCategoryTable = "cat_cost_categories"

// CostCategoryRepo implements costcategory.Repository.
type CostCategoryRepo struct {
	*BaseCatalogRepo[*costcategory.CostCategory]
}

// NewCostCategoryRepo creates a new cost category repository.
func NewCostCategoryRepo(tm *postgres.TxManager) *CostCategoryRepo {
	return &CostCategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			costCategoryTable,
			postgres.ExtractDBColumns[costcategory.CostCategory](),
			func() *costcategory.CostCategory { return &costcategory.CostCategory{} },
		),
	}
}
