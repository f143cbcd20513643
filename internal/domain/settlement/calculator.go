package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/entity"
	"mietwerk/internal/core/id"
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

// Reader interfaces over the stores the calculator consumes. The
// domain services satisfy them; tests substitute in-memory doubles.

type BuildingReader interface {
	GetByID(ctx context.Context, id id.ID) (*building.Building, error)
}

type ApartmentReader interface {
	GetByID(ctx context.Context, id id.ID) (*apartment.Apartment, error)
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*apartment.Apartment, error)
}

type TenantReader interface {
	GetByID(ctx context.Context, id id.ID) (*tenant.Tenant, error)
}

type LandlordReader interface {
	GetByID(ctx context.Context, id id.ID) (*landlord.Landlord, error)
}

type ContractResolver interface {
	FindActiveContract(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*contracts.Contract, error)
}

type CostReader interface {
	ListForSettlement(ctx context.Context, buildingID, apartmentID id.ID, periodStart, periodEnd time.Time) ([]*costs.CostRecord, error)
}

type MeterReader interface {
	ListByBuilding(ctx context.Context, buildingID id.ID) ([]*meter.Meter, error)
}

type MeterTypeReader interface {
	GetByID(ctx context.Context, id id.ID) (*meter.MeterType, error)
}

type ConsumptionReader interface {
	Consumption(ctx context.Context, m *meter.Meter, periodStart, periodEnd time.Time) (*readings.Consumption, error)
}

type AdvanceReader interface {
	SumAdvancePayments(ctx context.Context, contractID id.ID, periodStart, periodEnd time.Time) (types.Money, error)
}

// CalculatorDeps wires the calculator's reader dependencies.
type CalculatorDeps struct {
	Buildings   BuildingReader
	Apartments  ApartmentReader
	Tenants     TenantReader
	Landlords   LandlordReader
	Contracts   ContractResolver
	Costs       CostReader
	Meters      MeterReader
	MeterTypes  MeterTypeReader
	Consumption ConsumptionReader
	Advances    AdvanceReader
}

// Calculator computes settlements. It is a pure function of the stored
// cost/meter/contract state: it persists nothing and has no side
// effects beyond the returned Settlement.
type Calculator struct {
	deps CalculatorDeps
}

// NewCalculator creates a calculator over the given readers.
func NewCalculator(deps CalculatorDeps) *Calculator {
	return &Calculator{deps: deps}
}

// meterUsage pairs a meter with its resolved consumption. Consumption
// is nil when unavailable for the period.
type meterUsage struct {
	meter       *meter.Meter
	meterType   *meter.MeterType
	consumption *readings.Consumption
}

// Calculate produces the settlement for one apartment and inclusive
// period. Missing contract or tenant aborts with a validation error;
// data-quality problems (missing readings, zero consumption totals,
// missing areas) degrade to fallback apportionments with a note on the
// affected line, never a failure.
func (c *Calculator) Calculate(ctx context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Settlement, error) {
	if periodEnd.Before(periodStart) {
		return nil, apperror.NewValidation("period end must not precede period start")
	}

	apt, err := c.deps.Apartments.GetByID(ctx, apartmentID)
	if err != nil {
		return nil, err
	}

	contract, err := c.deps.Contracts.FindActiveContract(ctx, apartmentID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	ten, err := c.deps.Tenants.GetByID(ctx, contract.TenantID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewValidation("no tenant for apartment in period").
				WithDetail("apartment_id", apartmentID.String()).
				WithDetail("contract_id", contract.ID.String())
		}
		return nil, err
	}

	bld, err := c.deps.Buildings.GetByID(ctx, apt.BuildingID)
	if err != nil {
		return nil, err
	}

	months := MonthsSpanned(periodStart, periodEnd)

	advances, err := c.resolveAdvances(ctx, contract, months, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	buildingApts, err := c.deps.Apartments.ListByBuilding(ctx, apt.BuildingID)
	if err != nil {
		return nil, err
	}

	unitArea := apt.AreaSqm
	if contract.FloorSpaceOverride != nil && contract.FloorSpaceOverride.IsPositive() {
		unitArea = *contract.FloorSpaceOverride
	}
	totalArea := c.totalArea(bld, buildingApts)

	usages, err := c.resolveUsages(ctx, apt.BuildingID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	records, err := c.deps.Costs.ListForSettlement(ctx, apt.BuildingID, apartmentID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	breakdown := make([]BreakdownItem, 0, len(records))
	totalCosts := types.Zero()

	for _, rec := range records {
		item, included := c.apportion(ctx, rec, apt, unitArea, totalArea, len(buildingApts), usages, periodStart, periodEnd)
		if !included {
			continue
		}
		breakdown = append(breakdown, item)
		totalCosts = totalCosts.Add(item.Share)
	}

	details := c.consumptionDetails(usages)

	snapshot := c.snapshot(ctx, contract, ten, apt)

	stl := &Settlement{
		Record:             entity.NewRecord(),
		ApartmentID:        apt.ID,
		TenantID:           ten.ID,
		ContractID:         contract.ID,
		Year:               periodEnd.Year(),
		PeriodStart:        dateOnly(periodStart),
		PeriodEnd:          dateOnly(periodEnd),
		TotalCosts:         totalCosts,
		AdvancePayments:    advances,
		Balance:            totalCosts.Sub(advances),
		Status:             StatusCalculated,
		ApartmentArea:      unitArea,
		TotalArea:          totalArea,
		CostBreakdown:      breakdown,
		ConsumptionDetails: details,
		Snapshot:           snapshot,
	}

	return stl, nil
}

// resolveAdvances prefers actual advance-payment incomes in the period
// and falls back to the contractual monthly prepayment times months.
func (c *Calculator) resolveAdvances(ctx context.Context, contract *contracts.Contract, months int, periodStart, periodEnd time.Time) (types.Money, error) {
	paid, err := c.deps.Advances.SumAdvancePayments(ctx, contract.ID, periodStart, periodEnd)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum advance payments: %w", err)
	}
	if paid.IsPositive() {
		return types.RoundCents(paid), nil
	}
	return types.RoundCents(contract.MonthlyOperatingPrepayment().Mul(decimal.NewFromInt(int64(months)))), nil
}

func (c *Calculator) totalArea(bld *building.Building, apts []*apartment.Apartment) types.Money {
	if bld.TotalAreaSqm.IsPositive() {
		return bld.TotalAreaSqm
	}
	sum := types.Zero()
	for _, a := range apts {
		sum = sum.Add(a.AreaSqm)
	}
	return sum
}

// resolveUsages loads all active building meters with their types and
// period consumptions.
func (c *Calculator) resolveUsages(ctx context.Context, buildingID id.ID, periodStart, periodEnd time.Time) ([]meterUsage, error) {
	meters, err := c.deps.Meters.ListByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	usages := make([]meterUsage, 0, len(meters))
	typeCache := make(map[id.ID]*meter.MeterType)

	for _, m := range meters {
		if m.IsArchived {
			continue
		}

		mt, ok := typeCache[m.MeterTypeID]
		if !ok {
			mt, err = c.deps.MeterTypes.GetByID(ctx, m.MeterTypeID)
			if err != nil {
				return nil, err
			}
			typeCache[m.MeterTypeID] = mt
		}

		cons, err := c.deps.Consumption.Consumption(ctx, m, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}

		usages = append(usages, meterUsage{meter: m, meterType: mt, consumption: cons})
	}

	return usages, nil
}

// apportion computes one breakdown line. Records whose billing period
// does not touch the settlement period are excluded entirely.
func (c *Calculator) apportion(
	ctx context.Context,
	rec *costs.CostRecord,
	apt *apartment.Apartment,
	unitArea, totalArea types.Money,
	unitCount int,
	usages []meterUsage,
	periodStart, periodEnd time.Time,
) (BreakdownItem, bool) {
	adjusted := rec.AmountGross
	var note string

	// Time overlap scaling for records with their own billing period.
	if rec.HasBillingPeriod() {
		recordDays := DaysInclusive(*rec.PeriodStart, *rec.PeriodEnd)
		overlap := OverlapDays(*rec.PeriodStart, *rec.PeriodEnd, periodStart, periodEnd)
		if overlap == 0 || recordDays == 0 {
			return BreakdownItem{}, false
		}
		if overlap < recordDays {
			adjusted = adjusted.Mul(decimal.NewFromInt(int64(overlap))).Div(decimal.NewFromInt(int64(recordDays)))
		}
	}

	// Multi-year spreading.
	if rec.SpreadYears > 1 {
		adjusted = adjusted.Div(decimal.NewFromInt(int64(rec.SpreadYears)))
	}

	// Negotiated surcharge/discount.
	if !rec.DistributionFactor.IsZero() {
		adjusted = adjusted.Mul(decimal.NewFromInt(1).Add(types.Percent(rec.DistributionFactor)))
	}

	var share types.Money

	switch {
	case rec.ApartmentID != nil && *rec.ApartmentID == apt.ID:
		// Direct cost of this unit, no apportionment.
		share = adjusted

	case rec.Method == costcategory.ByUnits:
		if unitCount > 0 {
			share = adjusted.Div(decimal.NewFromInt(int64(unitCount)))
		} else {
			share = adjusted
		}

	case rec.Method == costcategory.ByUsage || rec.Method == costcategory.ByMeter:
		unitCons, totalCons, ok := c.usageShares(rec, apt.ID, usages)
		if ok {
			share = adjusted.Mul(unitCons).Div(totalCons)
		} else {
			share = c.areaShare(adjusted, unitArea, totalArea)
			note = "consumption unavailable, apportioned by area"
			logger.Debug(ctx, "usage apportionment fell back to area",
				"cost_record_id", rec.ID.String(),
				"apartment_id", apt.ID.String(),
			)
		}

	default:
		// by_area and anything unset or unknown.
		share = c.areaShare(adjusted, unitArea, totalArea)
		if !totalArea.IsPositive() {
			note = "no area data, cost skipped"
		}
	}

	// An explicit tenant allocation percentage overrides the method and
	// applies to the full, non-prorated gross amount.
	if rec.AllocationPercent != nil {
		share = rec.AmountGross.Mul(types.Percent(*rec.AllocationPercent))
		note = ""
	}

	share = types.RoundCents(types.ClampMoney(share, types.Zero(), rec.AmountGross))

	return BreakdownItem{
		CostRecordID:   rec.ID,
		Description:    rec.Description,
		Method:         string(rec.Method),
		GrossAmount:    rec.AmountGross,
		AdjustedAmount: types.RoundCents(adjusted),
		Share:          share,
		Note:           note,
	}, true
}

func (c *Calculator) areaShare(adjusted, unitArea, totalArea types.Money) types.Money {
	if !totalArea.IsPositive() {
		return types.Zero()
	}
	return adjusted.Mul(unitArea).Div(totalArea)
}

// usageShares resolves the unit's and the total consumption for a
// usage-distributed record. When the record references a meter, the
// pool is that meter's type siblings; otherwise all types metered in
// the unit participate. Returns ok=false when the unit's consumption is
// unavailable or the total is zero.
func (c *Calculator) usageShares(rec *costs.CostRecord, apartmentID id.ID, usages []meterUsage) (types.Money, types.Money, bool) {
	var typeIDs map[id.ID]bool

	if rec.MeterID != nil {
		for _, u := range usages {
			if u.meter.ID == *rec.MeterID {
				typeIDs = map[id.ID]bool{u.meter.MeterTypeID: true}
				break
			}
		}
		if typeIDs == nil {
			return types.Zero(), types.Zero(), false
		}
	} else {
		typeIDs = make(map[id.ID]bool)
		for _, u := range usages {
			if u.meter.ApartmentID != nil && *u.meter.ApartmentID == apartmentID {
				typeIDs[u.meter.MeterTypeID] = true
			}
		}
		if len(typeIDs) == 0 {
			return types.Zero(), types.Zero(), false
		}
	}

	unit := types.Zero()
	total := types.Zero()
	unitMetered := false

	for _, u := range usages {
		if !typeIDs[u.meter.MeterTypeID] || u.consumption == nil {
			continue
		}
		total = total.Add(u.consumption.Amount)
		if u.meter.ApartmentID != nil && *u.meter.ApartmentID == apartmentID {
			unit = unit.Add(u.consumption.Amount)
			unitMetered = true
		}
	}

	if !unitMetered || !total.IsPositive() {
		return types.Zero(), types.Zero(), false
	}
	return unit, total, true
}

// consumptionDetails builds one transparency entry per building meter.
func (c *Calculator) consumptionDetails(usages []meterUsage) []ConsumptionDetail {
	details := make([]ConsumptionDetail, 0, len(usages))

	for _, u := range usages {
		d := ConsumptionDetail{
			MeterID:     u.meter.ID,
			MeterNumber: u.meter.Number,
			MeterType:   u.meterType.Name,
			Unit:        u.meterType.Unit,
		}

		if cons := u.consumption; cons != nil {
			amount := cons.Amount
			d.Consumption = &amount

			if cons.StartReading != nil {
				v := cons.StartReading.Value
				t := cons.StartReading.ReadingDate
				d.StartValue, d.StartDate = &v, &t
			}
			if cons.EndReading != nil {
				v := cons.EndReading.Value
				t := cons.EndReading.ReadingDate
				d.EndValue, d.EndDate = &v, &t
			}

			if u.meter.PricePerUnit != nil {
				cost := types.RoundCents(amount.Mul(*u.meter.PricePerUnit))
				d.CostShare = &cost
			}
		}

		details = append(details, d)
	}

	return details
}

// snapshot freezes the contract terms. Landlord lookup failures only
// degrade the snapshot, they never abort the calculation.
func (c *Calculator) snapshot(ctx context.Context, contract *contracts.Contract, ten *tenant.Tenant, apt *apartment.Apartment) ContractSnapshot {
	snap := ContractSnapshot{
		ContractID:       contract.ID,
		ContractNumber:   contract.Number,
		StartDate:        contract.StartDate,
		EndDate:          contract.EndDate,
		RentNet:          contract.RentNet,
		RentAdditional:   contract.RentAdditional,
		OperatingAdvance: contract.OperatingAdvance,
		HeatingAdvance:   contract.HeatingAdvance,
		TenantName:       ten.FullName(),
		ApartmentNumber:  apt.Number,
	}

	if contract.LandlordID != nil {
		ll, err := c.deps.Landlords.GetByID(ctx, *contract.LandlordID)
		if err != nil {
			logger.Warn(ctx, "landlord lookup failed for snapshot",
				"landlord_id", contract.LandlordID.String(), "error", err)
		} else {
			snap.LandlordName = ll.Name
			snap.LandlordAddress = ll.Address()
		}
	}

	return snap
}
