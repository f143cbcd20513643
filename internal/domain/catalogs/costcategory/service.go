package costcategory

import (
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Repository defines the interface for CostCategory persistence.
type Repository interface {
	domain.CatalogRepository[*CostCategory]
}

// Service provides business logic for the CostCategory catalog.
type Service struct {
	*domain.CatalogService[*CostCategory]
}

// NewService creates a new CostCategory service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*CostCategory]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "cost category",
		}),
	}
}
