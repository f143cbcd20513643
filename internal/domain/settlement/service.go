package settlement

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
	"mietwerk/internal/observability/metrics"
	"mietwerk/pkg/logger"
)

// Service orchestrates settlement calculation and persistence. The
// calculator stays pure; storing the result, replacing a stale draft
// and the status lifecycle live here.
type Service struct {
	calc      *Calculator
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new settlement service.
func NewService(calc *Calculator, repo Repository, txManager tx.Manager) *Service {
	return &Service{
		calc:      calc,
		repo:      repo,
		txManager: txManager,
	}
}

// Calculate computes the settlement without persisting it.
func (s *Service) Calculate(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Settlement, error) {
	started := time.Now()
	stl, err := s.calc.Calculate(ctx, apartmentID, periodStart, periodEnd)
	if err != nil {
		metrics.ObserveSettlementCalc(metrics.ResultError, time.Since(started))
		return nil, err
	}
	metrics.ObserveSettlementCalc(metrics.ResultSuccess, time.Since(started))
	metrics.IncSettlementBalance(stl.BalanceSign())
	return stl, nil
}

// CalculateAndStore computes the settlement and persists it. An
// existing unlocked settlement for the same apartment and period is
// archived and replaced in the same transaction; a locked one aborts
// the run.
func (s *Service) CalculateAndStore(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Settlement, error) {
	stl, err := s.Calculate(ctx, apartmentID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindForPeriod(ctx, apartmentID, stl.PeriodStart, stl.PeriodEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.IsLocked() {
				return apperror.NewSettlementLocked(existing.ID.String())
			}
			existing.IsArchived = true
			if err := s.repo.Update(ctx, existing); err != nil {
				return fmt.Errorf("archive previous settlement: %w", err)
			}
		}

		if err := s.repo.Create(ctx, stl); err != nil {
			return fmt.Errorf("store settlement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "settlement stored",
		"settlement_id", stl.ID.String(),
		"apartment_id", apartmentID.String(),
		"total_costs", stl.TotalCosts.String(),
		"advances", stl.AdvancePayments.String(),
		"balance", stl.Balance.String(),
	)

	return stl, nil
}

// GetByID retrieves a settlement.
func (s *Service) GetByID(ctx context.Context, settlementID id.ID) (*Settlement, error) {
	return s.repo.GetByID(ctx, settlementID)
}

// List retrieves settlements with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Settlement], error) {
	return s.repo.List(ctx, filter)
}

// Transition moves a settlement along its lifecycle. Locked settlements
// only accept forward transitions (approved→sent→paid) and disputes.
func (s *Service) Transition(ctx context.Context, settlementID id.ID, to Status) error {
	stl, err := s.repo.GetByID(ctx, settlementID)
	if err != nil {
		return err
	}

	if !transitionAllowed(stl.Status, to) {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("cannot move settlement from %s to %s", stl.Status, to)).
			WithDetail("settlement_id", settlementID.String())
	}

	stl.Status = to
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, stl)
	})
}

// Archive soft-archives a settlement (draft and calculated only).
func (s *Service) Archive(ctx context.Context, settlementID id.ID) error {
	stl, err := s.repo.GetByID(ctx, settlementID)
	if err != nil {
		return err
	}
	if stl.IsLocked() {
		return apperror.NewSettlementLocked(settlementID.String())
	}
	stl.IsArchived = true
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, stl)
	})
}

func transitionAllowed(from, to Status) bool {
	allowed := map[Status][]Status{
		StatusDraft:      {StatusCalculated},
		StatusCalculated: {StatusApproved, StatusDraft},
		StatusApproved:   {StatusSent, StatusDisputed},
		StatusSent:       {StatusPaid, StatusDisputed},
		StatusDisputed:   {StatusCalculated, StatusApproved},
	}
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
