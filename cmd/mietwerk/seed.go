package main

import (
	"context"
	"fmt"
	"time"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain/catalogs/apartment"
	"mietwerk/internal/domain/catalogs/building"
	"mietwerk/internal/domain/catalogs/costcategory"
	"mietwerk/internal/domain/catalogs/landlord"
	"mietwerk/internal/domain/catalogs/meter"
	"mietwerk/internal/domain/catalogs/tenant"
	"mietwerk/internal/domain/contracts"
	"mietwerk/internal/domain/costs"
	"mietwerk/internal/domain/readings"
	"mietwerk/pkg/logger"
)

// runSeed loads a demo building with two apartments, meters, a tenancy
// and a year of cost records. It is idempotent: if the demo building
// already exists, nothing is written.
func runSeed(ctx context.Context, a *app) error {
	const buildingCode = "GEB-001"

	if _, err := a.buildings.GetByCode(ctx, buildingCode); err == nil {
		logger.Info(ctx, "demo data already present, skipping seed", "building", buildingCode)
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}

	bld := building.New(buildingCode, "Musterhaus", "Musterstraße 12", "10115", "Berlin")
	bld.YearBuilt = 1978
	bld.TotalAreaSqm = types.MustMoney("300")
	if err := a.buildings.Create(ctx, bld); err != nil {
		return fmt.Errorf("seed building: %w", err)
	}

	apt1 := apartment.New("WHG-001", "Wohnung EG links", bld.ID, "EG-L", types.MustMoney("60"))
	apt1.Floor = 0
	apt1.Rooms = 2
	apt1.Status = apartment.StatusOccupied
	apt2 := apartment.New("WHG-002", "Wohnung 1. OG rechts", bld.ID, "1OG-R", types.MustMoney("90"))
	apt2.Floor = 1
	apt2.Rooms = 3
	for _, apt := range []*apartment.Apartment{apt1, apt2} {
		if err := a.apartments.Create(ctx, apt); err != nil {
			return fmt.Errorf("seed apartment %s: %w", apt.Code, err)
		}
	}

	owner := landlord.New("VM-001", "Hausverwaltung Schmidt GmbH")
	owner.IsCompany = true
	owner.Street = "Verwalterweg 3"
	owner.PostalCode = "10115"
	owner.City = "Berlin"
	if err := a.landlords.Create(ctx, owner); err != nil {
		return fmt.Errorf("seed landlord: %w", err)
	}

	ten := tenant.New("MIE-001", apt1.ID, "Erika", "Mustermann")
	moveIn := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	ten.MoveInDate = &moveIn
	if err := a.tenants.Create(ctx, ten); err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	waterType := meter.NewType("MT-WASSER", "Kaltwasser", meter.CategoryWater, "m³")
	waterType.DecimalPlaces = 3
	heatType := meter.NewType("MT-HEIZUNG", "Heizung", meter.CategoryHeating, "kWh")
	for _, mt := range []*meter.MeterType{waterType, heatType} {
		if err := a.meterTypes.Create(ctx, mt); err != nil {
			return fmt.Errorf("seed meter type %s: %w", mt.Code, err)
		}
	}

	mainWater := meter.New("Z-W-MAIN", "Hauptwasserzähler", bld.ID, waterType.ID, "W-0001")
	mainWater.IsMain = true
	if err := a.meters.Create(ctx, mainWater); err != nil {
		return fmt.Errorf("seed main meter: %w", err)
	}

	subWater := meter.New("Z-W-EG-L", "Wasserzähler EG links", bld.ID, waterType.ID, "W-0002")
	subWater.ApartmentID = &apt1.ID
	subWater.ParentMeterID = &mainWater.ID
	if err := a.meters.Create(ctx, subWater); err != nil {
		return fmt.Errorf("seed sub meter: %w", err)
	}

	for _, r := range []struct {
		date string
		main string
		sub  string
	}{
		{"2024-01-01", "1500.000", "400.000"},
		{"2024-12-31", "1740.000", "520.000"},
	} {
		date, _ := time.Parse(dateLayout, r.date)
		if err := a.readings.Create(ctx, readings.New(mainWater.ID, types.MustMoney(r.main), date)); err != nil {
			return fmt.Errorf("seed main reading: %w", err)
		}
		if err := a.readings.Create(ctx, readings.New(subWater.ID, types.MustMoney(r.sub), date)); err != nil {
			return fmt.Errorf("seed sub reading: %w", err)
		}
	}

	catOperating := costcategory.New("BK-GRUND", "Grundsteuer", costcategory.ByArea)
	catWater := costcategory.New("BK-WASSER", "Wasser/Abwasser", costcategory.ByUsage)
	catHaus := costcategory.New("BK-HAUS", "Hausmeister", costcategory.ByUnits)
	for i, cat := range []*costcategory.CostCategory{catOperating, catWater, catHaus} {
		cat.SortOrder = (i + 1) * 10
		if err := a.categories.Create(ctx, cat); err != nil {
			return fmt.Errorf("seed cost category %s: %w", cat.Code, err)
		}
	}

	contract := contracts.New(apt1.ID, ten.ID, "MV-2023-001", moveIn)
	contract.LandlordID = &owner.ID
	contract.Status = contracts.StatusActive
	contract.RentNet = types.MustMoney("650")
	contract.OperatingAdvance = types.MustMoney("120")
	contract.HeatingAdvance = types.MustMoney("80")
	contract.Deposit = types.MustMoney("1950")
	if err := a.contracts.Create(ctx, contract); err != nil {
		return fmt.Errorf("seed contract: %w", err)
	}

	periodStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	seedCosts := []struct {
		category    *costcategory.CostCategory
		description string
		net         string
		tax         string
		method      costcategory.DistributionMethod
	}{
		{catOperating, "Grundsteuer 2024", "1008.40", "19", costcategory.ByArea},
		{catWater, "Wasser/Abwasser 2024", "840.34", "19", costcategory.ByUsage},
		{catHaus, "Hausmeisterdienst 2024", "504.20", "19", costcategory.ByUnits},
	}
	for _, sc := range seedCosts {
		rec := costs.New(bld.ID, sc.category.ID, sc.description, types.MustMoney(sc.net), types.MustMoney(sc.tax))
		rec.Method = sc.method
		rec.PeriodStart = &periodStart
		rec.PeriodEnd = &periodEnd
		if err := a.costs.Create(ctx, rec); err != nil {
			return fmt.Errorf("seed cost record %q: %w", sc.description, err)
		}
	}

	logger.Info(ctx, "demo data seeded",
		"building", bld.Code,
		"apartments", 2,
		"contract", contract.Number,
	)
	return nil
}
