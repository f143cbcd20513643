package contracts

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/pkg/logger"
)

// Service provides business logic for contracts, including the
// active-contract resolver used by the settlement calculator.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Contract service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create validates and persists a new contract.
func (s *Service) Create(ctx context.Context, c *Contract) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create contract: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a contract.
func (s *Service) GetByID(ctx context.Context, contractID id.ID) (*Contract, error) {
	return s.repo.GetByID(ctx, contractID)
}

// Update validates and persists contract changes.
func (s *Service) Update(ctx context.Context, c *Contract) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, c); err != nil {
			return fmt.Errorf("update contract: %w", err)
		}
		return nil
	})
}

// End closes a contract on the given date.
func (s *Service) End(ctx context.Context, contractID id.ID, endDate time.Time) error {
	c, err := s.repo.GetByID(ctx, contractID)
	if err != nil {
		return err
	}
	if endDate.Before(c.StartDate) {
		return apperror.NewValidation("end date must not precede start date").
			WithDetail("field", "end_date")
	}
	c.EndDate = &endDate
	c.Status = StatusEnded
	return s.Update(ctx, c)
}

// Delete soft-deletes a contract.
func (s *Service) Delete(ctx context.Context, contractID id.ID) error {
	return s.repo.SetDeletionMark(ctx, contractID, true)
}

// FindActiveContract selects the contract covering the apartment for
// the given period: among settleable contracts whose term overlaps the
// period, the one with the latest start date wins. When two contracts
// share the same start date the repository order (newest created first)
// decides and the ambiguity is logged for the operator.
func (s *Service) FindActiveContract(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Contract, error) {
	if periodEnd.Before(periodStart) {
		return nil, apperror.NewValidation("period end must not precede period start")
	}

	candidates, err := s.repo.ListOverlapping(ctx, apartmentID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("list overlapping contracts: %w", err)
	}

	if len(candidates) == 0 {
		return nil, apperror.NewValidation("no active contract for apartment in period").
			WithDetail("apartment_id", apartmentID.String()).
			WithDetail("period_start", periodStart.Format("2006-01-02")).
			WithDetail("period_end", periodEnd.Format("2006-01-02"))
	}

	winner := candidates[0]

	if len(candidates) > 1 && candidates[1].StartDate.Equal(winner.StartDate) {
		logger.Warn(ctx, "multiple contracts share the latest start date, picking most recently created",
			"apartment_id", apartmentID.String(),
			"start_date", winner.StartDate.Format("2006-01-02"),
			"picked", winner.ID.String(),
		)
	}

	return winner, nil
}
