package readings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain/catalogs/meter"
)

// hierarchyTolerance absorbs floating-point noise in register values.
var hierarchyTolerance = decimal.NewFromFloat(0.0001)

// MeterStore is the slice of the meter catalog the validator needs.
type MeterStore interface {
	GetByID(ctx context.Context, id id.ID) (*meter.Meter, error)
	ListSubMeters(ctx context.Context, parentID id.ID) ([]*meter.Meter, error)
}

// HierarchyValidator checks a proposed reading against the meter's
// sub-metering hierarchy before it is accepted. The checks are
// advisory: they guard data quality for the settlement, and can be
// switched off globally for cleanup sessions.
type HierarchyValidator struct {
	meters   MeterStore
	readings Repository
	disabled bool
}

// NewHierarchyValidator creates a validator. disabled turns all checks
// into no-ops.
func NewHierarchyValidator(meters MeterStore, readings Repository, disabled bool) *HierarchyValidator {
	return &HierarchyValidator{
		meters:   meters,
		readings: readings,
		disabled: disabled,
	}
}

// Validate checks the proposed value for m. Readings whose IDs appear
// in ignoreIDs are excluded from latest-value lookups (corrections
// replace the reading being corrected).
//
// Checks, each within tolerance:
//  1. a sub-meter's value must not exceed its parent's latest value
//  2. the sibling sum including the proposed value must equal the
//     parent's latest value
//  3. a parent's proposed value must equal the sum of its sub-meters
func (v *HierarchyValidator) Validate(ctx context.Context, m *meter.Meter, proposed types.Money, ignoreIDs []id.ID) error {
	if v.disabled || m == nil {
		return nil
	}

	if m.ParentMeterID != nil {
		if err := v.validateAgainstParent(ctx, m, proposed, ignoreIDs); err != nil {
			return err
		}
	}

	return v.validateAgainstSubs(ctx, m, proposed, ignoreIDs)
}

func (v *HierarchyValidator) validateAgainstParent(ctx context.Context, m *meter.Meter, proposed types.Money, ignoreIDs []id.ID) error {
	parentValue, ok, err := v.latestActiveValue(ctx, *m.ParentMeterID, ignoreIDs)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if proposed.Sub(parentValue).GreaterThan(hierarchyTolerance) {
		return apperror.NewReadingRejected(
			fmt.Sprintf("sub-meter value exceeds the main meter value (%s)", parentValue)).
			WithDetail("meter_id", m.ID.String()).
			WithDetail("parent_value", parentValue.String()).
			WithDetail("proposed", proposed.String())
	}

	siblings, err := v.activeSubMeters(ctx, *m.ParentMeterID)
	if err != nil {
		return err
	}

	siblingSum := proposed
	for _, sib := range siblings {
		if sib.ID == m.ID {
			continue
		}
		val, ok, err := v.latestActiveValue(ctx, sib.ID, ignoreIDs)
		if err != nil {
			return err
		}
		if ok {
			siblingSum = siblingSum.Add(val)
		}
	}

	if parentValue.Sub(siblingSum).Abs().GreaterThan(hierarchyTolerance) {
		return apperror.NewReadingRejected(
			fmt.Sprintf("sum of sub-meters (%s) must match the main meter (%s)", siblingSum, parentValue)).
			WithDetail("meter_id", m.ID.String()).
			WithDetail("sibling_sum", siblingSum.String()).
			WithDetail("parent_value", parentValue.String())
	}

	return nil
}

func (v *HierarchyValidator) validateAgainstSubs(ctx context.Context, m *meter.Meter, proposed types.Money, ignoreIDs []id.ID) error {
	subs, err := v.activeSubMeters(ctx, m.ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	subSum := types.Zero()
	for _, sub := range subs {
		val, ok, err := v.latestActiveValue(ctx, sub.ID, ignoreIDs)
		if err != nil {
			return err
		}
		if ok {
			subSum = subSum.Add(val)
		}
	}

	// Sub-meters without any readings yet do not constrain the parent.
	if !subSum.IsPositive() {
		return nil
	}

	if proposed.Sub(subSum).Abs().GreaterThan(hierarchyTolerance) {
		return apperror.NewReadingRejected(
			fmt.Sprintf("sum of sub-meters (%s) must match the main meter (%s)", subSum, proposed)).
			WithDetail("meter_id", m.ID.String()).
			WithDetail("sub_sum", subSum.String()).
			WithDetail("proposed", proposed.String())
	}

	return nil
}

func (v *HierarchyValidator) latestActiveValue(ctx context.Context, meterID id.ID, ignoreIDs []id.ID) (types.Money, bool, error) {
	reading, err := v.readings.LatestActive(ctx, meterID, ignoreIDs)
	if err != nil {
		return types.Zero(), false, fmt.Errorf("latest reading for meter %s: %w", meterID, err)
	}
	if reading == nil {
		return types.Zero(), false, nil
	}
	return reading.Value, true, nil
}

func (v *HierarchyValidator) activeSubMeters(ctx context.Context, parentID id.ID) ([]*meter.Meter, error) {
	subs, err := v.meters.ListSubMeters(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("sub-meters of %s: %w", parentID, err)
	}
	active := make([]*meter.Meter, 0, len(subs))
	for _, s := range subs {
		if !s.IsArchived {
			active = append(active, s)
		}
	}
	return active, nil
}
