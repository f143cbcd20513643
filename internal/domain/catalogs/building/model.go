// Package building provides the Building catalog. A building is the
// top-level cost-bearing unit: apartments, meters and shared cost
// records all hang off a building.
package building

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/types"
)

// Building represents a managed property.
type Building struct {
	entity.Catalog

	// Street including house number
	Street string `db:"street" json:"street"`

	PostalCode string `db:"postal_code" json:"postalCode"`
	City       string `db:"city" json:"city"`

	// YearBuilt is optional; zero means unknown
	YearBuilt int `db:"year_built" json:"yearBuilt,omitempty"`

	// TotalAreaSqm is the total heated floor area. When zero, the sum
	// of apartment areas is used for area-based apportionment.
	TotalAreaSqm types.Money `db:"total_area_sqm" json:"totalAreaSqm"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// New creates a Building with required fields.
func New(code, name, street, postalCode, city string) *Building {
	return &Building{
		Catalog:    entity.NewCatalog(code, name),
		Street:     street,
		PostalCode: postalCode,
		City:       city,
	}
}

// Validate implements entity.Validatable.
func (b *Building) Validate(ctx context.Context) error {
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}

	if b.TotalAreaSqm.IsNegative() {
		return apperror.NewValidation("total area must not be negative").
			WithDetail("field", "total_area_sqm").
			WithDetail("value", b.TotalAreaSqm.String())
	}

	return nil
}
