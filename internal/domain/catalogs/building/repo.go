package building

import (
	"mietwerk/internal/domain"
)

// Repository defines the interface for Building persistence.
type Repository interface {
	domain.CatalogRepository[*Building]
}
