// Package costs provides operating-cost records (Betriebskosten): the
// invoice-like line items a settlement apportions across apartments.
package costs

import (
	"context"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain/catalogs/costcategory"
)

// CostRecord is an operating-cost line item scoped to a building and
// optionally to one apartment or one meter.
type CostRecord struct {
	entity.Record

	BuildingID id.ID `db:"building_id" json:"buildingId"`

	// ApartmentID restricts the cost to one unit (no apportionment)
	ApartmentID *id.ID `db:"apartment_id" json:"apartmentId,omitempty"`

	// MeterID restricts usage-based apportionment to one meter
	MeterID *id.ID `db:"meter_id" json:"meterId,omitempty"`

	CategoryID id.ID `db:"category_id" json:"categoryId"`

	Description string `db:"description" json:"description"`

	AmountNet types.Money `db:"amount_net" json:"amountNet"`

	// TaxRate in percent (19 for 19%)
	TaxRate types.Money `db:"tax_rate" json:"taxRate"`

	// AmountGross normally equals net × (1 + tax/100); an explicit
	// override is kept as entered
	AmountGross types.Money `db:"amount_gross" json:"amountGross"`

	// GrossOverridden marks a gross amount entered by hand
	GrossOverridden bool `db:"gross_overridden" json:"grossOverridden"`

	PeriodStart *time.Time `db:"period_start" json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `db:"period_end" json:"periodEnd,omitempty"`

	InvoiceDate   *time.Time `db:"invoice_date" json:"invoiceDate,omitempty"`
	InvoiceNumber *string    `db:"invoice_number" json:"invoiceNumber,omitempty"`
	SupplierName  *string    `db:"supplier_name" json:"supplierName,omitempty"`

	Method costcategory.DistributionMethod `db:"method" json:"method"`

	// AllocationPercent, when set, overrides the method: that share of
	// the full gross amount goes to the tenant
	AllocationPercent *types.Money `db:"allocation_percent" json:"allocationPercent,omitempty"`

	// SpreadYears amortizes a one-time cost over N settlement years
	SpreadYears int `db:"spread_years" json:"spreadYears"`

	// DistributionFactor is a negotiated surcharge/discount in percent
	// applied before apportionment (±)
	DistributionFactor types.Money `db:"distribution_factor" json:"distributionFactor"`

	IsArchived bool `db:"is_archived" json:"isArchived"`
}

// New creates a CostRecord with required fields. The gross amount is
// derived from net and tax rate.
func New(buildingID, categoryID id.ID, description string, amountNet, taxRate types.Money) *CostRecord {
	return &CostRecord{
		Record:      entity.NewRecord(),
		BuildingID:  buildingID,
		CategoryID:  categoryID,
		Description: description,
		AmountNet:   amountNet,
		TaxRate:     taxRate,
		AmountGross: types.GrossFromNet(amountNet, taxRate),
		SpreadYears: 1,
	}
}

// SetGrossOverride replaces the derived gross amount with an explicit
// figure (invoices with mixed tax rates).
func (c *CostRecord) SetGrossOverride(gross types.Money) {
	c.AmountGross = gross
	c.GrossOverridden = true
}

// RecalculateGross re-derives gross from net and tax rate unless an
// override is in place.
func (c *CostRecord) RecalculateGross() {
	if !c.GrossOverridden {
		c.AmountGross = types.GrossFromNet(c.AmountNet, c.TaxRate)
	}
}

// Validate implements entity.Validatable.
func (c *CostRecord) Validate(ctx context.Context) error {
	if id.IsNil(c.BuildingID) {
		return apperror.NewValidation("building is required").
			WithDetail("field", "building_id")
	}

	if id.IsNil(c.CategoryID) {
		return apperror.NewValidation("cost category is required").
			WithDetail("field", "category_id")
	}

	if c.Description == "" {
		return apperror.NewValidation("description is required").
			WithDetail("field", "description")
	}

	if c.AmountNet.IsNegative() {
		return apperror.NewValidation("net amount must not be negative").
			WithDetail("field", "amount_net")
	}

	if c.TaxRate.IsNegative() {
		return apperror.NewValidation("tax rate must not be negative").
			WithDetail("field", "tax_rate")
	}

	if c.Method != "" && !costcategory.IsValidDistributionMethod(c.Method) {
		return apperror.NewValidation("invalid distribution method").
			WithDetail("field", "method").
			WithDetail("value", string(c.Method))
	}

	if c.SpreadYears < 1 {
		return apperror.NewValidation("spread years must be at least 1").
			WithDetail("field", "spread_years").
			WithDetail("value", c.SpreadYears)
	}

	if c.AllocationPercent != nil &&
		(c.AllocationPercent.IsNegative() || c.AllocationPercent.GreaterThan(types.NewMoney(100))) {
		return apperror.NewValidation("allocation percent must be between 0 and 100").
			WithDetail("field", "allocation_percent")
	}

	if (c.PeriodStart == nil) != (c.PeriodEnd == nil) {
		return apperror.NewValidation("billing period needs both start and end").
			WithDetail("field", "period_start")
	}

	if c.PeriodStart != nil && c.PeriodEnd.Before(*c.PeriodStart) {
		return apperror.NewValidation("billing period end must not precede start").
			WithDetail("field", "period_end")
	}

	return nil
}

// HasBillingPeriod reports whether the record carries its own period.
func (c *CostRecord) HasBillingPeriod() bool {
	return c.PeriodStart != nil && c.PeriodEnd != nil
}
