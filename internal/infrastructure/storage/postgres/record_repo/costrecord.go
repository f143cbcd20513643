package record_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/costs"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const costRecordTable = "rec_cost_records"

// CostRecordRepo implements costs.Repository.
type CostRecordRepo struct {
	*BaseRecordRepo[*costs.CostRecord]
}

// NewCostRecordRepo creates a new cost record repository.
func NewCostRecordRepo(tm *postgres.TxManager) *CostRecordRepo {
	return &CostRecordRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			tm,
			costRecordTable,
			postgres.ExtractDBColumns[costs.CostRecord](),
			func() *costs.CostRecord { return &costs.CostRecord{} },
		),
	}
}

// ListForSettlement returns the building's shared cost records plus
// those scoped to the given apartment, qualified for the period:
// records with a billing period must overlap it, records without one
// must have their invoice date inside it.
func (r *CostRecordRepo) ListForSettlement(ctx context.Context, buildingID, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*costs.CostRecord, error) {
	return r.Select(ctx, r.settlementQuery(buildingID, apartmentID, periodStart, periodEnd))
}

// settlementQuery builds the qualification predicate for one settlement
// run.
func (r *CostRecordRepo) settlementQuery(buildingID, apartmentID id.ID, periodStart, periodEnd time.Time) squirrel.SelectBuilder {
	return r.BaseSelect().
		Where(squirrel.Eq{"building_id": buildingID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_archived": false}).
		Where(squirrel.Or{
			squirrel.Eq{"apartment_id": nil},
			squirrel.Eq{"apartment_id": apartmentID},
		}).
		Where(squirrel.Or{
			// Billing period overlaps the settlement period.
			squirrel.And{
				squirrel.NotEq{"period_start": nil},
				squirrel.LtOrEq{"period_start": periodEnd},
				squirrel.GtOrEq{"period_end": periodStart},
			},
			// No billing period: invoice date inside the window.
			squirrel.And{
				squirrel.Eq{"period_start": nil},
				squirrel.NotEq{"invoice_date": nil},
				squirrel.GtOrEq{"invoice_date": periodStart},
				squirrel.LtOrEq{"invoice_date": periodEnd},
			},
		}).
		OrderBy("created_at ASC")
}
