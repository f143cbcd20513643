package finance

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain"
)

// Service provides business logic for income records.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new Income service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create validates and persists a new income.
func (s *Service) Create(ctx context.Context, i *Income) error {
	if err := i.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, i); err != nil {
			return fmt.Errorf("create income: %w", err)
		}
		return nil
	})
}

// GetByID retrieves an income record.
func (s *Service) GetByID(ctx context.Context, incomeID id.ID) (*Income, error) {
	return s.repo.GetByID(ctx, incomeID)
}

// Update validates and persists income changes.
func (s *Service) Update(ctx context.Context, i *Income) error {
	if err := i.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, i); err != nil {
			return fmt.Errorf("update income: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes an income record.
func (s *Service) Delete(ctx context.Context, incomeID id.ID) error {
	return s.repo.SetDeletionMark(ctx, incomeID, true)
}

// List retrieves incomes with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Income], error) {
	return s.repo.List(ctx, filter)
}

// SumAdvancePayments sums the advance payments of a contract in the
// given period.
func (s *Service) SumAdvancePayments(ctx context.Context, contractID id.ID, periodStart, periodEnd time.Time) (types.Money, error) {
	return s.repo.SumAdvancePayments(ctx, contractID, periodStart, periodEnd)
}
