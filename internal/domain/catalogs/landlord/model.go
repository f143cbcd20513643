// Package landlord provides the Landlord catalog. Landlord data is
// snapshotted into settlements so later edits never change an already
// rendered document.
package landlord

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
)

// Landlord represents the lessor, either a person or a company.
type Landlord struct {
	entity.Catalog

	// IsCompany switches between person and company display forms
	IsCompany bool `db:"is_company" json:"isCompany"`

	Street     string `db:"street" json:"street"`
	PostalCode string `db:"postal_code" json:"postalCode"`
	City       string `db:"city" json:"city"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	// BankAccount is the IBAN printed on settlement documents
	BankAccount *string `db:"bank_account" json:"bankAccount,omitempty"`
}

// New creates a Landlord with required fields.
func New(code, name string) *Landlord {
	return &Landlord{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (l *Landlord) Validate(ctx context.Context) error {
	if err := l.Catalog.Validate(ctx); err != nil {
		return err
	}

	if l.BankAccount != nil && *l.BankAccount != "" && len(*l.BankAccount) < 15 {
		return apperror.NewValidation("bank account looks too short for an IBAN").
			WithDetail("field", "bank_account")
	}

	return nil
}

// Address returns the postal address in one line.
func (l *Landlord) Address() string {
	return l.Street + ", " + l.PostalCode + " " + l.City
}
