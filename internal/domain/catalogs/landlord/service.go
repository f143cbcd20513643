package landlord

import (
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Repository defines the interface for Landlord persistence.
type Repository interface {
	domain.CatalogRepository[*Landlord]
}

// Service provides business logic for the Landlord catalog.
type Service struct {
	*domain.CatalogService[*Landlord]
}

// NewService creates a new Landlord service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*Landlord]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "landlord",
		}),
	}
}
