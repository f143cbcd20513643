package record_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/domain/readings"
	"mietwerk/internal/infrastructure/storage/postgres"
)

const readingTable = "rec_meter_readings"

// ReadingRepo implements readings.Repository.
type ReadingRepo struct {
	*BaseRecordRepo[*readings.MeterReading]
}

// NewReadingRepo creates a new meter reading repository.
func NewReadingRepo(tm *postgres.TxManager) *ReadingRepo {
	return &ReadingRepo{
		BaseRecordRepo: NewBaseRecordRepo(
			tm,
			readingTable,
			postgres.ExtractDBColumns[readings.MeterReading](),
			func() *readings.MeterReading { return &readings.MeterReading{} },
		),
	}
}

func (r *ReadingRepo) activeSelect(meterID id.ID) squirrel.SelectBuilder {
	return r.BaseSelect().
		Where(squirrel.Eq{"meter_id": meterID}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Eq{"is_archived": false})
}

// Archive marks a reading as superseded.
func (r *ReadingRepo) Archive(ctx context.Context, readingID id.ID) error {
	q := r.Builder().
		Update(readingTable).
		Set("is_archived", true).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": readingID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("archive reading: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(readingTable, readingID.String())
	}
	return nil
}

// LatestOnOrBefore returns the newest active reading dated on or before
// date, or nil.
func (r *ReadingRepo) LatestOnOrBefore(ctx context.Context, meterID id.ID, date time.Time) (*readings.MeterReading, error) {
	q := r.activeSelect(meterID).
		Where(squirrel.LtOrEq{"reading_date": date}).
		OrderBy("reading_date DESC", "created_at DESC").
		Limit(1)

	reading, found, err := r.FindOne(ctx, q)
	if err != nil || !found {
		return nil, err
	}
	return reading, nil
}

// EarliestOnOrAfter returns the oldest active reading dated on or after
// date, or nil.
func (r *ReadingRepo) EarliestOnOrAfter(ctx context.Context, meterID id.ID, date time.Time) (*readings.MeterReading, error) {
	q := r.activeSelect(meterID).
		Where(squirrel.GtOrEq{"reading_date": date}).
		OrderBy("reading_date ASC", "created_at ASC").
		Limit(1)

	reading, found, err := r.FindOne(ctx, q)
	if err != nil || !found {
		return nil, err
	}
	return reading, nil
}

// LatestActive returns the newest active reading of the meter, skipping
// the given IDs, or nil.
func (r *ReadingRepo) LatestActive(ctx context.Context, meterID id.ID, ignoreIDs []id.ID) (*readings.MeterReading, error) {
	q := r.activeSelect(meterID).
		OrderBy("reading_date DESC", "created_at DESC").
		Limit(1)

	if len(ignoreIDs) > 0 {
		q = q.Where(squirrel.NotEq{"id": ignoreIDs})
	}

	reading, found, err := r.FindOne(ctx, q)
	if err != nil || !found {
		return nil, err
	}
	return reading, nil
}

// ListByMeter retrieves all active readings of a meter, oldest first.
func (r *ReadingRepo) ListByMeter(ctx context.Context, meterID id.ID) ([]*readings.MeterReading, error) {
	q := r.activeSelect(meterID).
		OrderBy("reading_date ASC", "created_at ASC")

	return r.Select(ctx, q)
}
