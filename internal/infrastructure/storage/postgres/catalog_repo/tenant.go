package catalog_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/catalogs/tenant"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const tenantTable = "cat_tenants"

// TenantRepo implements tenant.Repository.
type TenantRepo struct {
	*BaseCatalogRepo[*tenant.Tenant]
}

// NewTenantRepo creates a new tenant repository.
func NewTenantRepo(tm *postgres.TxManager) *TenantRepo {
	return &TenantRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			tm,
			tenantTable,
			postgres.ExtractDBColumns[tenant.Tenant](),
			func() *tenant.Tenant { return &tenant.Tenant{} },
		),
	}
}

// FindActiveForPeriod returns the primary tenant whose occupancy
// overlaps the period, preferring the latest move-in. Tenants with no
// move-in date recorded count as occupying since forever.
func (r *TenantRepo) FindActiveForPeriod(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*tenant.Tenant, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"apartment_id": apartmentID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.Eq{"move_in_date": nil},
			squirrel.LtOrEq{"move_in_date": periodEnd},
		}).
		Where(squirrel.Or{
			squirrel.Eq{"move_out_date": nil},
			squirrel.GtOrEq{"move_out_date": periodStart},
		}).
		OrderBy("is_primary DESC", "move_in_date DESC NULLS LAST").
		Limit(1)

	return r.FindOne(ctx, q)
}
