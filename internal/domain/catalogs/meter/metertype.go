package meter

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
)

// Category groups meter types for usage-based apportionment.
type Category string

const (
	CategoryElectricity Category = "electricity"
	CategoryWater       Category = "water"
	CategoryGas         Category = "gas"
	CategoryHeating     Category = "heating"
	CategoryRenewable   Category = "renewable"
	CategorySpecial     Category = "special"
)

// MeterType describes a kind of meter (cold water, heat, power feed-in).
type MeterType struct {
	entity.Catalog

	Category Category `db:"category" json:"category"`

	// Unit is the measurement unit ("kWh", "m³")
	Unit string `db:"unit" json:"unit"`

	// DecimalPlaces controls display precision of readings
	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces"`
}

// NewType creates a MeterType with required fields.
func NewType(code, name string, category Category, unit string) *MeterType {
	return &MeterType{
		Catalog:       entity.NewCatalog(code, name),
		Category:      category,
		Unit:          unit,
		DecimalPlaces: 2,
	}
}

// Validate implements entity.Validatable.
func (t *MeterType) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidCategory(t.Category) {
		return apperror.NewValidation("invalid meter category").
			WithDetail("field", "category").
			WithDetail("value", string(t.Category))
	}

	if t.Unit == "" {
		return apperror.NewValidation("unit is required").
			WithDetail("field", "unit")
	}

	return nil
}

func isValidCategory(c Category) bool {
	switch c {
	case CategoryElectricity, CategoryWater, CategoryGas, CategoryHeating, CategoryRenewable, CategorySpecial:
		return true
	}
	return false
}
