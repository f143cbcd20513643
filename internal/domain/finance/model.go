// Package finance provides income records: rent and advance payments
// received from tenants, netted against costs at settlement time.
package finance

import (
	"context"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// Income is one payment received under a contract. The amount can be
// split into components for reporting; components that are zero simply
// stay zero.
type Income struct {
	entity.Record

	ContractID id.ID  `db:"contract_id" json:"contractId"`
	TenantID   *id.ID `db:"tenant_id" json:"tenantId,omitempty"`

	Amount types.Money `db:"amount" json:"amount"`

	// Component split of Amount
	RentPortion          types.Money `db:"rent_portion" json:"rentPortion"`
	ServiceChargePortion types.Money `db:"service_charge_portion" json:"serviceChargePortion"`
	SpecialPortion       types.Money `db:"special_portion" json:"specialPortion"`

	// IsAdvancePayment marks operating-cost prepayments that settle
	// against apportioned costs
	IsAdvancePayment bool `db:"is_advance_payment" json:"isAdvancePayment"`

	ReceivedOn time.Time `db:"received_on" json:"receivedOn"`

	Reference *string `db:"reference" json:"reference,omitempty"`
}

// New creates an Income with required fields.
func New(contractID id.ID, amount types.Money, receivedOn time.Time) *Income {
	return &Income{
		Record:     entity.NewRecord(),
		ContractID: contractID,
		Amount:     amount,
		ReceivedOn: receivedOn,
	}
}

// Validate implements entity.Validatable.
func (i *Income) Validate(ctx context.Context) error {
	if id.IsNil(i.ContractID) {
		return apperror.NewValidation("contract is required").
			WithDetail("field", "contract_id")
	}

	if !i.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").
			WithDetail("field", "amount").
			WithDetail("value", i.Amount.String())
	}

	if i.ReceivedOn.IsZero() {
		return apperror.NewValidation("received-on date is required").
			WithDetail("field", "received_on")
	}

	split := i.RentPortion.Add(i.ServiceChargePortion).Add(i.SpecialPortion)
	if !split.IsZero() && !split.Equal(i.Amount) {
		return apperror.NewValidation("component split must add up to the amount").
			WithDetail("amount", i.Amount.String()).
			WithDetail("split", split.String())
	}

	return nil
}

// AllocateComponents splits the amount against the contract's monthly
// figures: rent first, then service charge, remainder to special.
func (i *Income) AllocateComponents(monthlyRent, monthlyServiceCharge types.Money) {
	remaining := i.Amount

	i.RentPortion = types.ClampMoney(monthlyRent, types.Zero(), remaining)
	remaining = remaining.Sub(i.RentPortion)

	i.ServiceChargePortion = types.ClampMoney(monthlyServiceCharge, types.Zero(), remaining)
	remaining = remaining.Sub(i.ServiceChargePortion)

	i.SpecialPortion = remaining
}
