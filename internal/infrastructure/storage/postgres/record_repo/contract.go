package record_repo

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/contracts"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const contractTable = "rec_contracts"

// ContractRepo implements contracts.Repository.
type ContractRepo struct {
	*BaseRecordRepo[*contracts.Contract]
}

// NewContractRepo creates a new contract repository.
func NewContractRepo(tm *postgres.TxManager) *ContractRepo {
	return &ContractRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			tm,
			contractTable,
			postgres.ExtractDBColumns[contracts.Contract](),
			func() *contracts.Contract { return &contracts.Contract{} },
		),
	}
}

// ListOverlapping returns settleable contracts of the apartment whose
// term overlaps [periodStart, periodEnd], newest start first. Ties on
// the start date are broken by creation time so the order is stable.
func (r *ContractRepo) ListOverlapping(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*contracts.Contract, error) {
	statuses := contracts.SettleableStatuses()
	statusVals := make([]string, len(statuses))
	for i, s := range statuses {
		statusVals[i] = string(s)
	}

	q := r.BaseSelect().
		Where(squirrel.Eq{"apartment_id": apartmentID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"status": statusVals}).
		Where(squirrel.LtOrEq{"start_date": periodEnd}).
		Where(squirrel.Or{
			squirrel.Eq{"end_date": nil},
			squirrel.GtOrEq{"end_date": periodStart},
		}).
		OrderBy("start_date DESC", "created_at DESC")

	return r.Select(ctx, q)
}
