// Package tenant provides the Tenant catalog.
package tenant

import (
	"context"
	"regexp"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
)

// Status describes whether a tenant currently occupies their unit.
type Status string

const (
	StatusActive   Status = "active"
	StatusMovedOut Status = "moved_out"
)

// Tenant represents a person renting an apartment.
type Tenant struct {
	entity.Catalog

	ApartmentID id.ID `db:"apartment_id" json:"apartmentId"`

	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	MoveInDate  *time.Time `db:"move_in_date" json:"moveInDate,omitempty"`
	MoveOutDate *time.Time `db:"move_out_date" json:"moveOutDate,omitempty"`

	Status Status `db:"status" json:"status"`

	// IsPrimary marks the main tenant when several share a unit
	IsPrimary bool `db:"is_primary" json:"isPrimary"`
}

// New creates a Tenant with required fields.
func New(code string, apartmentID id.ID, firstName, lastName string) *Tenant {
	t := &Tenant{
		Catalog:     entity.NewCatalog(code, lastName+", "+firstName),
		ApartmentID: apartmentID,
		FirstName:   firstName,
		LastName:    lastName,
		Status:      StatusActive,
		IsPrimary:   true,
	}
	return t
}

// Validate implements entity.Validatable.
func (t *Tenant) Validate(ctx context.Context) error {
	if err := t.Catalog.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.ApartmentID) {
		return apperror.NewValidation("apartment is required").
			WithDetail("field", "apartment_id")
	}

	if t.LastName == "" {
		return apperror.NewValidation("last name is required").
			WithDetail("field", "last_name")
	}

	if t.Status != StatusActive && t.Status != StatusMovedOut {
		return apperror.NewValidation("invalid tenant status").
			WithDetail("field", "status").
			WithDetail("value", string(t.Status))
	}

	if t.Email != nil && *t.Email != "" && !isValidEmail(*t.Email) {
		return apperror.NewValidation("invalid email address").
			WithDetail("field", "email").
			WithDetail("value", *t.Email)
	}

	if t.MoveInDate != nil && t.MoveOutDate != nil && t.MoveOutDate.Before(*t.MoveInDate) {
		return apperror.NewValidation("move-out date must not precede move-in date").
			WithDetail("field", "move_out_date")
	}

	return nil
}

// ActiveOn reports whether the tenant occupied the unit on the given date.
func (t *Tenant) ActiveOn(d time.Time) bool {
	if t.MoveInDate != nil && d.Before(*t.MoveInDate) {
		return false
	}
	if t.MoveOutDate != nil && d.After(*t.MoveOutDate) {
		return false
	}
	return t.Status == StatusActive || t.MoveOutDate != nil
}

// FullName returns "First Last" for display and snapshots.
func (t *Tenant) FullName() string {
	if t.FirstName == "" {
		return t.LastName
	}
	return t.FirstName + " " + t.LastName
}

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}
