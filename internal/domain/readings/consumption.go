package readings

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/types"
	"mietwerk/internal/domain/catalogs/meter"
	"mietwerk/internal/observability/metrics"
)

// Consumption is the metered usage of one meter over a period.
type Consumption struct {
	// Amount = (end.Value - start.Value) × meter multiplier
	Amount types.Money

	StartReading *MeterReading
	EndReading   *MeterReading
}

// ConsumptionResolver computes consumption between period boundaries.
type ConsumptionResolver struct {
	repo Repository
}

// NewConsumptionResolver creates a resolver over the given store.
func NewConsumptionResolver(repo Repository) *ConsumptionResolver {
	return &ConsumptionResolver{repo: repo}
}

// Consumption resolves the usage of m over [periodStart, periodEnd].
//
// Boundary readings are chosen leniently: the latest active reading on
// or before the boundary, falling back to the earliest one after it
// when history is missing. A missing reading or a negative delta
// (rollback, meter swap) yields (nil, nil): consumption is unavailable,
// never an error, and callers fall back to another apportionment.
func (r *ConsumptionResolver) Consumption(ctx context.Context, m *meter.Meter, periodStart, periodEnd time.Time) (*Consumption, error) {
	start, err := r.boundaryReading(ctx, m, periodStart)
	if err != nil {
		return nil, err
	}
	end, err := r.boundaryReading(ctx, m, periodEnd)
	if err != nil {
		return nil, err
	}

	if start == nil || end == nil {
		metrics.IncConsumptionFallback("missing_reading")
		return nil, nil
	}

	delta := end.Value.Sub(start.Value)
	if delta.IsNegative() {
		metrics.IncConsumptionFallback("negative_delta")
		return nil, nil
	}

	return &Consumption{
		Amount:       delta.Mul(m.Multiplier),
		StartReading: start,
		EndReading:   end,
	}, nil
}

// boundaryReading picks the reading that best represents the register
// state at the given date.
func (r *ConsumptionResolver) boundaryReading(ctx context.Context, m *meter.Meter, date time.Time) (*MeterReading, error) {
	reading, err := r.repo.LatestOnOrBefore(ctx, m.ID, date)
	if err != nil {
		return nil, fmt.Errorf("reading before %s for meter %s: %w", date.Format("2006-01-02"), m.ID, err)
	}
	if reading != nil {
		return reading, nil
	}

	reading, err = r.repo.EarliestOnOrAfter(ctx, m.ID, date)
	if err != nil {
		return nil, fmt.Errorf("reading after %s for meter %s: %w", date.Format("2006-01-02"), m.ID, err)
	}
	return reading, nil
}
