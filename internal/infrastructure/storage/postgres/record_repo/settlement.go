package record_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/settlement"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const settlementTable = "rec_settlements"

// SettlementRepo implements settlement.Repository. The breakdown,
// consumption details and contract snapshot live in jsonb columns; pgx
// marshals the struct fields transparently.
type SettlementRepo struct {
	*BaseRecordRepo[*settlement.Settlement]
}

// NewSettlementRepo creates a new settlement repository.
func NewSettlementRepo(tm *postgres.TxManager) *SettlementRepo {
	return &SettlementRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			tm,
			settlementTable,
			postgres.ExtractDBColumns[settlement.Settlement](),
			func() *settlement.Settlement { return &settlement.Settlement{} },
		),
	}
}

// FindForPeriod returns the non-archived settlement of the apartment
// exactly matching the period, or nil when none exists.
func (r *SettlementRepo) FindForPeriod(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*settlement.Settlement, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"apartment_id": apartmentID}).
		Where(squirrel.Eq{"period_start": periodStart}).
		Where(squirrel.Eq{"period_end": periodEnd}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_archived": false}).
		OrderBy("created_at DESC").
		Limit(1)

	stl, found, err := r.FindOne(ctx, q)
	if err != nil || !found {
		return nil, err
	}
	return stl, nil
}
