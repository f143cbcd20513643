// Package readings provides the append-only meter reading store, the
// consumption resolver and the sub-meter hierarchy validator.
package readings

import (
	"context"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

// ReadingType classifies how a reading value was obtained.
type ReadingType string

const (
	TypeActual     ReadingType = "actual"
	TypeEstimated  ReadingType = "estimated"
	TypeCorrection ReadingType = "correction"
)

// MeterReading is a timestamped register value of one meter. Readings
// are never updated in place: a correction references the original,
// which is archived and excluded from consumption calculations.
type MeterReading struct {
	entity.Record

	MeterID id.ID `db:"meter_id" json:"meterId"`

	Value types.Money `db:"value" json:"value"`

	ReadingDate time.Time `db:"reading_date" json:"readingDate"`

	Type ReadingType `db:"type" json:"type"`

	// CorrectionOf references the reading this one supersedes
	CorrectionOf *id.ID `db:"correction_of" json:"correctionOf,omitempty"`

	// IsArchived marks superseded readings
	IsArchived bool `db:"is_archived" json:"isArchived"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// New creates an actual MeterReading.
func New(meterID id.ID, value types.Money, readingDate time.Time) *MeterReading {
	return &MeterReading{
		Record:      entity.NewRecord(),
		MeterID:     meterID,
		Value:       value,
		ReadingDate: readingDate,
		Type:        TypeActual,
	}
}

// NewCorrection creates a reading that supersedes an existing one.
func NewCorrection(original *MeterReading, value types.Money, readingDate time.Time) *MeterReading {
	r := New(original.MeterID, value, readingDate)
	r.Type = TypeCorrection
	originalID := original.ID
	r.CorrectionOf = &originalID
	return r
}

// Validate implements entity.Validatable.
func (r *MeterReading) Validate(ctx context.Context) error {
	if id.IsNil(r.MeterID) {
		return apperror.NewValidation("meter is required").
			WithDetail("field", "meter_id")
	}

	if r.Value.IsNegative() {
		return apperror.NewValidation("reading value must not be negative").
			WithDetail("field", "value").
			WithDetail("value", r.Value.String())
	}

	if r.ReadingDate.IsZero() {
		return apperror.NewValidation("reading date is required").
			WithDetail("field", "reading_date")
	}

	switch r.Type {
	case TypeActual, TypeEstimated, TypeCorrection:
	default:
		return apperror.NewValidation("invalid reading type").
			WithDetail("field", "type").
			WithDetail("value", string(r.Type))
	}

	if r.Type == TypeCorrection && r.CorrectionOf == nil {
		return apperror.NewValidation("correction must reference the original reading").
			WithDetail("field", "correction_of")
	}

	return nil
}
