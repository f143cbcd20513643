package apartment

import (
	"context"

	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Service provides business logic for the Apartment catalog.
type Service struct {
	*domain.CatalogService[*Apartment]
	repo Repository
}

// NewService creates a new Apartment service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Apartment]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "apartment",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// ListByBuilding retrieves all apartments of a building.
func (s *Service) ListByBuilding(ctx context.Context, buildingID id.ID) ([]*Apartment, error) {
	return s.repo.ListByBuilding(ctx, buildingID)
}
