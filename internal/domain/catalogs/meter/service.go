package meter

import (
	"context"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/tx"
	"mietwerk/internal/domain"
)

// Service provides business logic for the Meter catalog.
type Service struct {
	*domain.CatalogService[*Meter]
	repo  Repository
	types TypeRepository
}

// NewService creates a new Meter service.
func NewService(repo Repository, types TypeRepository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Meter]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "meter",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		types:          types,
	}

	base.Hooks().OnBeforeCreate(svc.checkParent)
	base.Hooks().OnBeforeUpdate(svc.checkParent)

	return svc
}

// checkParent rejects cross-building parents and unknown meter types.
func (s *Service) checkParent(ctx context.Context, m *Meter) error {
	if ok, err := s.types.Exists(ctx, m.MeterTypeID); err != nil {
		return err
	} else if !ok {
		return apperror.NewNotFound("meter type", m.MeterTypeID.String())
	}

	if m.ParentMeterID == nil {
		return nil
	}

	parent, err := s.repo.GetByID(ctx, *m.ParentMeterID)
	if err != nil {
		return err
	}
	if parent.BuildingID != m.BuildingID {
		return apperror.NewValidation("parent meter belongs to a different building").
			WithDetail("parent_meter_id", parent.ID.String())
	}
	if parent.MeterTypeID != m.MeterTypeID {
		return apperror.NewValidation("parent meter has a different type").
			WithDetail("parent_meter_id", parent.ID.String())
	}
	return nil
}

// ListByBuilding retrieves all active meters of a building.
func (s *Service) ListByBuilding(ctx context.Context, buildingID id.ID) ([]*Meter, error) {
	return s.repo.ListByBuilding(ctx, buildingID)
}

// ListByApartment retrieves all active meters of an apartment.
func (s *Service) ListByApartment(ctx context.Context, apartmentID id.ID) ([]*Meter, error) {
	return s.repo.ListByApartment(ctx, apartmentID)
}

// ListSubMeters retrieves the direct children of a meter.
func (s *Service) ListSubMeters(ctx context.Context, parentID id.ID) ([]*Meter, error) {
	return s.repo.ListSubMeters(ctx, parentID)
}

// Archive marks a meter as no longer in service. Archived meters keep
// their readings but stop participating in validation and settlements.
func (s *Service) Archive(ctx context.Context, meterID id.ID) error {
	m, err := s.GetByID(ctx, meterID)
	if err != nil {
		return err
	}
	m.IsArchived = true
	return s.Update(ctx, m)
}

// TypeService provides business logic for the MeterType catalog.
type TypeService struct {
	*domain.CatalogService[*MeterType]
}

// NewTypeService creates a new MeterType service.
func NewTypeService(repo TypeRepository, txManager tx.Manager) *TypeService {
	return &TypeService{
		CatalogService: domain.NewCatalogService(domain.CatalogServiceConfig[*MeterType]{
			Repo:       repo,
			TxManager:  txManager,
			EntityName: "meter type",
		}),
	}
}
