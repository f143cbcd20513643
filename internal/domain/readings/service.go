package readings

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain"
	"mietwerk/internal/observability/metrics"
	"mietwerk/pkg/logger"
)

// Service provides business logic for meter readings: creation with
// hierarchy validation, corrections and consumption resolution.
type Service struct {
	repo      Repository
	meters    MeterStore
	validator *HierarchyValidator
	resolver  *ConsumptionResolver
	txManager tx.Manager
}

// NewService creates a new reading service.
func NewService(repo Repository, meters MeterStore, validator *HierarchyValidator, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		meters:    meters,
		validator: validator,
		resolver:  NewConsumptionResolver(repo),
		txManager: txManager,
	}
}

// Create validates and stores a new reading.
func (s *Service) Create(ctx context.Context, r *MeterReading) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	m, err := s.meters.GetByID(ctx, r.MeterID)
	if err != nil {
		return err
	}
	if m.IsArchived {
		return apperror.NewValidation("meter is archived").
			WithDetail("meter_id", m.ID.String())
	}

	if err := s.validator.Validate(ctx, m, r.Value, nil); err != nil {
		metrics.IncReadingRejection("hierarchy")
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create reading: %w", err)
		}
		return nil
	})
}

// Correct supersedes an existing reading with a new value. The original
// is archived in the same transaction, so consumption calculations only
// ever see one of the two.
func (s *Service) Correct(ctx context.Context, originalID id.ID, value types.Money, readingDate time.Time) (*MeterReading, error) {
	original, err := s.repo.GetByID(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if original.IsArchived {
		return nil, apperror.NewValidation("reading is already superseded").
			WithDetail("reading_id", originalID.String())
	}

	m, err := s.meters.GetByID(ctx, original.MeterID)
	if err != nil {
		return nil, err
	}

	// The original is about to be replaced, so it is excluded from the
	// latest-value lookups.
	if err := s.validator.Validate(ctx, m, value, []id.ID{originalID}); err != nil {
		metrics.IncReadingRejection("hierarchy")
		return nil, err
	}

	correction := NewCorrection(original, value, readingDate)

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Archive(ctx, originalID); err != nil {
			return fmt.Errorf("archive corrected reading: %w", err)
		}
		if err := s.repo.Create(ctx, correction); err != nil {
			return fmt.Errorf("create correction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "reading corrected",
		"meter_id", m.ID.String(),
		"original", originalID.String(),
		"correction", correction.ID.String(),
	)

	return correction, nil
}

// GetByID retrieves a reading.
func (s *Service) GetByID(ctx context.Context, readingID id.ID) (*MeterReading, error) {
	return s.repo.GetByID(ctx, readingID)
}

// List retrieves readings with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*MeterReading], error) {
	return s.repo.List(ctx, filter)
}

// ListByMeter retrieves all active readings of a meter.
func (s *Service) ListByMeter(ctx context.Context, meterID id.ID) ([]*MeterReading, error) {
	return s.repo.ListByMeter(ctx, meterID)
}

// Resolver exposes the consumption resolver for the settlement
// calculator.
func (s *Service) Resolver() *ConsumptionResolver {
	return s.resolver
}
