// Package apartment provides the Apartment catalog. An apartment is a
// rentable unit within a building; its floor area drives area-based
// cost apportionment.
package apartment

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// UnitType classifies the kind of rentable unit.
type UnitType string

const (
	TypeWohnung     UnitType = "wohnung"
	TypeGewerbe     UnitType = "gewerbe"
	TypeGarage      UnitType = "garage"
	TypeKeller      UnitType = "keller"
	TypeLager       UnitType = "lager"
	TypeAbstellraum UnitType = "abstellraum"
)

// Status describes the occupancy state of an apartment.
type Status string

const (
	StatusVacant      Status = "vacant"
	StatusOccupied    Status = "occupied"
	StatusReserved    Status = "reserved"
	StatusMaintenance Status = "maintenance"
)

// Apartment represents a rentable unit within a building.
type Apartment struct {
	entity.Catalog

	BuildingID id.ID `db:"building_id" json:"buildingId"`

	// Number is the unit label within the building ("EG links", "2.OG")
	Number string `db:"number" json:"number"`

	Floor int `db:"floor" json:"floor"`

	// AreaSqm is the heated floor area used for by_area apportionment
	AreaSqm types.Money `db:"area_sqm" json:"areaSqm"`

	Rooms int `db:"rooms" json:"rooms"`

	UnitType UnitType `db:"unit_type" json:"unitType"`
	Status   Status   `db:"status" json:"status"`
}

// New creates an Apartment with required fields.
func New(code, name string, buildingID id.ID, number string, areaSqm types.Money) *Apartment {
	return &Apartment{
		Catalog:    entity.NewCatalog(code, name),
		BuildingID: buildingID,
		Number:     number,
		AreaSqm:    areaSqm,
		UnitType:   TypeWohnung,
		Status:     StatusVacant,
	}
}

// Validate implements entity.Validatable.
func (a *Apartment) Validate(ctx context.Context) error {
	if err := a.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(a.BuildingID) {
		return apperror.NewValidation("building is required").
			WithDetail("field", "building_id")
	}

	if a.AreaSqm.IsNegative() {
		return apperror.NewValidation("area must not be negative").
			WithDetail("field", "area_sqm").
			WithDetail("value", a.AreaSqm.String())
	}

	if a.UnitType != "" && !isValidUnitType(a.UnitType) {
		return apperror.NewValidation("invalid unit type").
			WithDetail("field", "unit_type").
			WithDetail("value", string(a.UnitType))
	}

	if a.Status != "" && !isValidStatus(a.Status) {
		return apperror.NewValidation("invalid apartment status").
			WithDetail("field", "status").
			WithDetail("value", string(a.Status))
	}

	return nil
}

func isValidUnitType(t UnitType) bool {
	switch t {
	case TypeWohnung, TypeGewerbe, TypeGarage, TypeKeller, TypeLager, TypeAbstellraum:
		return true
	}
	return false
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusVacant, StatusOccupied, StatusReserved, StatusMaintenance:
		return true
	}
	return false
}
