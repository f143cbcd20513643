package catalog_repo

import (
	"mietwerk/internal/domain/catalogs/landlord"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const landlordTable = "cat_landlords"

// LandlordRepo implements landlord.Repository.
type LandlordRepo struct {
	*BaseCatalogRepo[*landlord.Landlord]
}

// NewLandlordRepo creates a new landlord repository.
func NewLandlordRepo(tm *postgres.TxManager) *LandlordRepo {
	return &LandlordRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			landlordTable,
			postgres.ExtractDBColumns[landlord.Landlord](),
			func() *landlord.Landlord { return &landlord.Landlord{} },
		),
	}
}
