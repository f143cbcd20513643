// Package settlement provides the utility-cost settlement
// (Nebenkostenabrechnung): the calculator that apportions building
// operating costs to one apartment and nets them against the tenant's
// advance payments, plus the resulting Settlement record.
package settlement

import (
	"context"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// Status describes the settlement lifecycle. The calculator only ever
// produces calculated settlements; later transitions happen externally.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusSent       Status = "sent"
	StatusPaid       Status = "paid"
	StatusDisputed   Status = "disputed"
)

// BreakdownItem is one cost line of a settlement.
type BreakdownItem struct {
	CostRecordID id.ID  `json:"costRecordId"`
	Description  string `json:"description"`
	Method       string `json:"method"`

	// GrossAmount is the record's full gross amount
	GrossAmount types.Money `json:"grossAmount"`

	// AdjustedAmount is the gross after time scaling, multi-year
	// spreading and the adjustment factor
	AdjustedAmount types.Money `json:"adjustedAmount"`

	// Share is the apartment's final portion of the cost
	Share types.Money `json:"share"`

	// Note explains fallbacks and degradations on this line
	Note string `json:"note,omitempty"`
}

// ConsumptionDetail documents one meter's usage over the period,
// independent of whether any cost line used it for apportionment.
type ConsumptionDetail struct {
	MeterID     id.ID  `json:"meterId"`
	MeterNumber string `json:"meterNumber"`
	MeterType   string `json:"meterType"`
	Unit        string `json:"unit"`

	StartValue *types.Money `json:"startValue,omitempty"`
	StartDate  *time.Time   `json:"startDate,omitempty"`
	EndValue   *types.Money `json:"endValue,omitempty"`
	EndDate    *time.Time   `json:"endDate,omitempty"`

	Consumption *types.Money `json:"consumption,omitempty"`

	// CostShare is filled when the meter carries a price per unit
	CostShare *types.Money `json:"costShare,omitempty"`
}

// ContractSnapshot freezes the contract terms at calculation time so
// later edits never change an already rendered settlement.
type ContractSnapshot struct {
	ContractID     id.ID      `json:"contractId"`
	ContractNumber string     `json:"contractNumber"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate,omitempty"`

	RentNet          types.Money `json:"rentNet"`
	RentAdditional   types.Money `json:"rentAdditional"`
	OperatingAdvance types.Money `json:"operatingAdvance"`
	HeatingAdvance   types.Money `json:"heatingAdvance"`

	TenantName      string `json:"tenantName"`
	ApartmentNumber string `json:"apartmentNumber"`
	LandlordName    string `json:"landlordName,omitempty"`
	LandlordAddress string `json:"landlordAddress,omitempty"`
}

// Settlement is the computed reconciliation for one apartment and
// period.
type Settlement struct {
	entity.Record

	ApartmentID id.ID `db:"apartment_id" json:"apartmentId"`
	TenantID    id.ID `db:"tenant_id" json:"tenantId"`
	ContractID  id.ID `db:"contract_id" json:"contractId"`

	// Year is the settlement year, taken from the period end
	Year int `db:"year" json:"year"`

	PeriodStart time.Time `db:"period_start" json:"periodStart"`
	PeriodEnd   time.Time `db:"period_end" json:"periodEnd"`

	TotalCosts      types.Money `db:"total_costs" json:"totalCosts"`
	AdvancePayments types.Money `db:"advance_payments" json:"advancePayments"`

	// Balance = TotalCosts - AdvancePayments, exact
	Balance types.Money `db:"balance" json:"balance"`

	Status Status `db:"status" json:"status"`

	IsArchived bool `db:"is_archived" json:"isArchived"`

	// ApartmentArea and TotalArea record the figures used for
	// area-based apportionment
	ApartmentArea types.Money `db:"apartment_area" json:"apartmentArea"`
	TotalArea     types.Money `db:"total_area" json:"totalArea"`

	CostBreakdown      []BreakdownItem     `db:"cost_breakdown" json:"costBreakdown"`
	ConsumptionDetails []ConsumptionDetail `db:"consumption_details" json:"consumptionDetails"`
	Snapshot           ContractSnapshot    `db:"contract_snapshot" json:"contractSnapshot"`
}

// Validate implements entity.Validatable.
func (s *Settlement) Validate(ctx context.Context) error {
	if id.IsNil(s.ApartmentID) {
		return apperror.NewValidation("apartment is required").
			WithDetail("field", "apartment_id")
	}
	if id.IsNil(s.ContractID) {
		return apperror.NewValidation("contract is required").
			WithDetail("field", "contract_id")
	}
	if s.PeriodEnd.Before(s.PeriodStart) {
		return apperror.NewValidation("period end must not precede period start")
	}
	if !s.Balance.Equal(s.TotalCosts.Sub(s.AdvancePayments)) {
		return apperror.NewValidation("balance must equal costs minus advances").
			WithDetail("total_costs", s.TotalCosts.String()).
			WithDetail("advance_payments", s.AdvancePayments.String()).
			WithDetail("balance", s.Balance.String())
	}
	return nil
}

// IsLocked reports whether the settlement may no longer be
// recalculated or modified.
func (s *Settlement) IsLocked() bool {
	switch s.Status {
	case StatusApproved, StatusSent, StatusPaid:
		return true
	}
	return false
}

// BalanceSign classifies the balance for reporting: "payable" when the
// tenant owes money, "refund" when the landlord does.
func (s *Settlement) BalanceSign() string {
	switch {
	case s.Balance.IsPositive():
		return "payable"
	case s.Balance.IsNegative():
		return "refund"
	}
	return "zero"
}
