package costs

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Service provides business logic for cost records.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new CostRecord service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create validates and persists a new cost record.
func (s *Service) Create(ctx context.Context, c *CostRecord) error {
	c.RecalculateGross()
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create cost record: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a cost record.
func (s *Service) GetByID(ctx context.Context, recordID id.ID) (*CostRecord, error) {
	return s.repo.GetByID(ctx, recordID)
}

// Update validates and persists cost record changes.
func (s *Service) Update(ctx context.Context, c *CostRecord) error {
	c.RecalculateGross()
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, c); err != nil {
			return fmt.Errorf("update cost record: %w", err)
		}
		return nil
	})
}

// Archive excludes a cost record from future settlements without
// deleting it.
func (s *Service) Archive(ctx context.Context, recordID id.ID) error {
	c, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	c.IsArchived = true
	return s.Update(ctx, c)
}

// Delete soft-deletes a cost record.
func (s *Service) Delete(ctx context.Context, recordID id.ID) error {
	return s.repo.SetDeletionMark(ctx, recordID, true)
}

// List retrieves cost records with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*CostRecord], error) {
	return s.repo.List(ctx, filter)
}

// ListForSettlement returns the cost records qualifying for a
// settlement run.
func (s *Service) ListForSettlement(ctx context.Context, buildingID, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*CostRecord, error) {
	return s.repo.ListForSettlement(ctx, buildingID, apartmentID, periodStart, periodEnd)
}
