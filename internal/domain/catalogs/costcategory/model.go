// Package costcategory provides the CostCategory catalog and the
// distribution methods shared with cost records.
package costcategory

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
)

// DistributionMethod is the rule used to divide a shared cost among
// apartments.
type DistributionMethod string

const (
	ByArea          DistributionMethod = "by_area"
	ByUnits         DistributionMethod = "by_units"
	ByUsage         DistributionMethod = "by_usage"
	ByMeter         DistributionMethod = "by_meter"
	FixedPercentage DistributionMethod = "fixed_percentage"
)

// IsValidDistributionMethod reports whether m is a known method.
// An empty method is allowed and falls back to area-based apportionment.
func IsValidDistributionMethod(m DistributionMethod) bool {
	switch m {
	case ByArea, ByUnits, ByUsage, ByMeter, FixedPercentage:
		return true
	}
	return false
}

// CostCategory classifies operating costs (Grundsteuer, Wasser, Müll).
type CostCategory struct {
	entity.Catalog

	// DefaultMethod pre-fills the distribution method of new cost
	// records in this category
	DefaultMethod DistributionMethod `db:"default_method" json:"defaultMethod"`

	// SortOrder controls the position on the settlement document
	SortOrder int `db:"sort_order" json:"sortOrder"`
}

// New creates a CostCategory with required fields.
func New(code, name string, method DistributionMethod) *CostCategory {
	return &CostCategory{
		Catalog:       entity.NewCatalog(code, name),
		DefaultMethod: method,
	}
}

// Validate implements entity.Validatable.
func (c *CostCategory) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.DefaultMethod != "" && !IsValidDistributionMethod(c.DefaultMethod) {
		return apperror.NewValidation("invalid distribution method").
			WithDetail("field", "default_method").
			WithDetail("value", string(c.DefaultMethod))
	}

	return nil
}
