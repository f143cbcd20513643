// Package meter provides the Meter and MeterType catalogs. Meters form
// a sub-metering hierarchy: a building main meter can have per-apartment
// sub-meters whose readings should add up to the parent's.
package meter

import (
	"context"

	"github.com/shopspring/decimal"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// Meter represents a physical or virtual measuring point.
type Meter struct {
	entity.Catalog

	BuildingID id.ID `db:"building_id" json:"buildingId"`

	// ApartmentID is set for unit-level sub-meters, nil for shared meters
	ApartmentID *id.ID `db:"apartment_id" json:"apartmentId,omitempty"`

	// ParentMeterID links a sub-meter to the meter it subdivides
	ParentMeterID *id.ID `db:"parent_meter_id" json:"parentMeterId,omitempty"`

	MeterTypeID id.ID `db:"meter_type_id" json:"meterTypeId"`

	// Number is the serial printed on the device
	Number string `db:"number" json:"number"`

	// Multiplier scales raw register deltas into consumption units.
	// Almost always 1; current transformers and the like use more.
	Multiplier types.Money `db:"multiplier" json:"multiplier"`

	// PricePerUnit, when set, lets the settlement show a monetary value
	// next to the consumption of this meter
	PricePerUnit *types.Money `db:"price_per_unit" json:"pricePerUnit,omitempty"`

	// IsMain marks the building-level head meter of its type
	IsMain bool `db:"is_main" json:"isMain"`

	// IsVirtual marks computed meters that have no physical register
	IsVirtual bool `db:"is_virtual" json:"isVirtual"`

	IsArchived bool `db:"is_archived" json:"isArchived"`
}

// New creates a Meter with required fields.
func New(code, name string, buildingID, meterTypeID id.ID, number string) *Meter {
	return &Meter{
		Catalog:     entity.NewCatalog(code, name),
		BuildingID:  buildingID,
		MeterTypeID: meterTypeID,
		Number:      number,
		Multiplier:  decimal.NewFromInt(1),
	}
}

// Validate implements entity.Validatable.
func (m *Meter) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(m.BuildingID) {
		return apperror.NewValidation("building is required").
			WithDetail("field", "building_id")
	}

	if id.IsNil(m.MeterTypeID) {
		return apperror.NewValidation("meter type is required").
			WithDetail("field", "meter_type_id")
	}

	if !m.Multiplier.IsPositive() {
		return apperror.NewValidation("multiplier must be positive").
			WithDetail("field", "multiplier").
			WithDetail("value", m.Multiplier.String())
	}

	if m.ParentMeterID != nil && *m.ParentMeterID == m.ID {
		return apperror.NewValidation("meter cannot be its own parent").
			WithDetail("field", "parent_meter_id")
	}

	if m.PricePerUnit != nil && m.PricePerUnit.IsNegative() {
		return apperror.NewValidation("price per unit must not be negative").
			WithDetail("field", "price_per_unit")
	}

	return nil
}

// IsSubMeter reports whether the meter sits below another meter.
func (m *Meter) IsSubMeter() bool {
	return m.ParentMeterID != nil
}
