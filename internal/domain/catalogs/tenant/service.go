package tenant

import (
	"context"
	"time"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Service provides business logic for the Tenant catalog.
type Service struct {
	*domain.CatalogService[*Tenant]
	repo Repository
}

// NewService creates a new Tenant service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Tenant]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "tenant",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().OnBeforeUpdate(svc.syncStatus)

	return svc
}

// syncStatus derives the status from the move-out date so the two
// fields cannot drift apart.
func (s *Service) syncStatus(ctx context.Context, t *Tenant) error {
	if t.MoveOutDate != nil && !t.MoveOutDate.After(time.Now()) {
		t.Status = StatusMovedOut
	}
	return nil
}

// FindActiveForPeriod returns the tenant occupying the apartment during
// the given period.
func (s *Service) FindActiveForPeriod(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Tenant, error) {
	return s.repo.FindActiveForPeriod(ctx, apartmentID, periodStart, periodEnd)
}
