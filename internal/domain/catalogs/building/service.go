package building

import (
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Service provides business logic for the Building catalog.
type Service struct {
	*domain.CatalogService[*Building]
	repo Repository
}

// NewService creates a new Building service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Building]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "building",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}
