// Package contracts provides the lease Contract record and the resolver
// that finds the contract active during a settlement period.
package contracts

import (
	"context"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// Status describes the contract lifecycle.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusApproved Status = "approved"
	StatusEnded    Status = "ended"
)

// settleableStatuses are the statuses a contract may have to be picked
// up by the settlement calculator.
var settleableStatuses = []Status{StatusDraft, StatusActive, StatusApproved}

// SettleableStatuses returns the statuses eligible for settlement.
func SettleableStatuses() []Status {
	out := make([]Status, len(settleableStatuses))
	copy(out, settleableStatuses)
	return out
}

// Contract represents a lease for one apartment/tenant pair.
type Contract struct {
	entity.Record

	ApartmentID id.ID  `db:"apartment_id" json:"apartmentId"`
	TenantID    id.ID  `db:"tenant_id" json:"tenantId"`
	LandlordID  *id.ID `db:"landlord_id" json:"landlordId,omitempty"`

	// Number is the human-readable contract number
	Number string `db:"number" json:"number"`

	Status Status `db:"status" json:"status"`

	StartDate time.Time  `db:"start_date" json:"startDate"`
	EndDate   *time.Time `db:"end_date" json:"endDate,omitempty"`

	// RentNet is the monthly cold rent (Kaltmiete)
	RentNet types.Money `db:"rent_net" json:"rentNet"`

	// RentAdditional is the monthly surcharge rolled into the operating
	// prepayment (e.g. furniture, parking)
	RentAdditional types.Money `db:"rent_additional" json:"rentAdditional"`

	// OperatingAdvance is the monthly operating-cost prepayment
	OperatingAdvance types.Money `db:"operating_advance" json:"operatingAdvance"`

	// HeatingAdvance is the monthly heating prepayment
	HeatingAdvance types.Money `db:"heating_advance" json:"heatingAdvance"`

	// FloorSpaceOverride replaces the apartment area for apportionment
	// when the lease names a different figure
	FloorSpaceOverride *types.Money `db:"floor_space_override" json:"floorSpaceOverride,omitempty"`

	Deposit types.Money `db:"deposit" json:"deposit"`
}

// New creates a Contract with required fields.
func New(apartmentID, tenantID id.ID, number string, startDate time.Time) *Contract {
	return &Contract{
		Record:      entity.NewRecord(),
		ApartmentID: apartmentID,
		TenantID:    tenantID,
		Number:      number,
		Status:      StatusDraft,
		StartDate:   startDate,
	}
}

// Validate implements entity.Validatable.
func (c *Contract) Validate(ctx context.Context) error {
	if id.IsNil(c.ApartmentID) {
		return apperror.NewValidation("apartment is required").
			WithDetail("field", "apartment_id")
	}

	if id.IsNil(c.TenantID) {
		return apperror.NewValidation("tenant is required").
			WithDetail("field", "tenant_id")
	}

	if c.StartDate.IsZero() {
		return apperror.NewValidation("start date is required").
			WithDetail("field", "start_date")
	}

	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return apperror.NewValidation("end date must not precede start date").
			WithDetail("field", "end_date")
	}

	if !isValidStatus(c.Status) {
		return apperror.NewValidation("invalid contract status").
			WithDetail("field", "status").
			WithDetail("value", string(c.Status))
	}

	if c.RentNet.IsNegative() || c.RentAdditional.IsNegative() ||
		c.OperatingAdvance.IsNegative() || c.HeatingAdvance.IsNegative() {
		return apperror.NewValidation("rent components must not be negative")
	}

	return nil
}

// ActiveOn reports whether the contract covers the given date:
// start ≤ d ≤ (end or infinity).
func (c *Contract) ActiveOn(d time.Time) bool {
	if d.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && d.After(*c.EndDate) {
		return false
	}
	return true
}

// Overlaps reports whether the contract's term intersects
// [periodStart, periodEnd] (inclusive).
func (c *Contract) Overlaps(periodStart, periodEnd time.Time) bool {
	if c.StartDate.After(periodEnd) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(periodStart) {
		return false
	}
	return true
}

// MonthlyOperatingPrepayment is the amount a tenant prepays per month
// toward operating and heating costs.
func (c *Contract) MonthlyOperatingPrepayment() types.Money {
	return c.RentAdditional.Add(c.OperatingAdvance).Add(c.HeatingAdvance)
}

// IsSettleable reports whether the contract status allows settlements.
func (c *Contract) IsSettleable() bool {
	for _, s := range settleableStatuses {
		if c.Status == s {
			return true
		}
	}
	return false
}

func isValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusActive, StatusApproved, StatusEnded:
		return true
	}
	return false
}
