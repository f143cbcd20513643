package record_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain/finance"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const incomeTable = "rec_incomes"

// IncomeRepo implements finance.Repository.
type IncomeRepo struct {
	*BaseRecordRepo[*finance.Income]
}

// NewIncomeRepo creates a new income repository.
func NewIncomeRepo(tm *postgres.TxManager) *IncomeRepo {
	return &IncomeRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			tm,
			incomeTable,
			postgres.ExtractDBColumns[finance.Income](),
			func() *finance.Income { return &finance.Income{} },
		),
	}
}

// SumAdvancePayments sums advance-payment incomes of the contract in
// [periodStart, periodEnd]. Missing rows sum to zero.
func (r *IncomeRepo) SumAdvancePayments(ctx context.Context, contractID id.ID, periodStart, periodEnd time.Time) (types.Money, error) {
	q := r.Builder().
		Select("COALESCE(SUM(amount), 0)").
		From(incomeTable).
		Where(squirrel.Eq{"contract_id": contractID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_advance_payment": true}).
		Where(squirrel.GtOrEq{"received_on": periodStart}).
		Where(squirrel.LtOrEq{"received_on": periodEnd})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var sum types.Money
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return types.Zero(), fmt.Errorf("sum advance payments: %w", err)
	}

	return sum, nil
}
