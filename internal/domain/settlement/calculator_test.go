package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mietwerk/internal/core/apperror"
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
)

// --- in-memory doubles for the calculator's reader interfaces ---

type fakeBuildings map[id.ID]*building.Building

func (f fakeBuildings) GetByID(_ context.Context, bid id.ID) (*building.Building, error) {
	if b, ok := f[bid]; ok {
		return b, nil
	}
	return nil, apperror.NewNotFound("building", bid.String())
}

type fakeApartments struct {
	byID       map[id.ID]*apartment.Apartment
	byBuilding map[id.ID][]*apartment.Apartment
}

func (f *fakeApartments) GetByID(_ context.Context, aid id.ID) (*apartment.Apartment, error) {
	if a, ok := f.byID[aid]; ok {
		return a, nil
	}
	return nil, apperror.NewNotFound("apartment", aid.String())
}

func (f *fakeApartments) ListByBuilding(_ context.Context, bid id.ID) ([]*apartment.Apartment, error) {
	return f.byBuilding[bid], nil
}

type fakeTenants map[id.ID]*tenant.Tenant

func (f fakeTenants) GetByID(_ context.Context, tid id.ID) (*tenant.Tenant, error) {
	if t, ok := f[tid]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("tenant", tid.String())
}

type fakeLandlords map[id.ID]*landlord.Landlord

func (f fakeLandlords) GetByID(_ context.Context, lid id.ID) (*landlord.Landlord, error) {
	if l, ok := f[lid]; ok {
		return l, nil
	}
	return nil, apperror.NewNotFound("landlord", lid.String())
}

type fakeContracts struct {
	contract    *contracts.Contract
	byApartment map[id.ID]*contracts.Contract
}

func (f *fakeContracts) FindActiveContract(_ context.Context, apartmentID id.ID, _, _ time.Time) (*contracts.Contract, error) {
	if c, ok := f.byApartment[apartmentID]; ok {
		return c, nil
	}
	if f.contract == nil {
		return nil, apperror.NewValidation("no active contract for apartment in period").
			WithDetail("apartment_id", apartmentID.String())
	}
	return f.contract, nil
}

type fakeCosts []*costs.CostRecord

func (f fakeCosts) ListForSettlement(_ context.Context, _, _ id.ID, _, _ time.Time) ([]*costs.CostRecord, error) {
	return f, nil
}

type fakeMeters []*meter.Meter

func (f fakeMeters) ListByBuilding(_ context.Context, _ id.ID) ([]*meter.Meter, error) {
	return f, nil
}

type fakeMeterTypes map[id.ID]*meter.MeterType

func (f fakeMeterTypes) GetByID(_ context.Context, tid id.ID) (*meter.MeterType, error) {
	if mt, ok := f[tid]; ok {
		return mt, nil
	}
	return nil, apperror.NewNotFound("meter type", tid.String())
}

// fakeConsumption maps meter ID to resolved consumption; absent entries
// behave like unavailable history.
type fakeConsumption map[id.ID]*readings.Consumption

func (f fakeConsumption) Consumption(_ context.Context, m *meter.Meter, _, _ time.Time) (*readings.Consumption, error) {
	return f[m.ID], nil
}

type fakeAdvances struct {
	paid types.Money
}

func (f *fakeAdvances) SumAdvancePayments(_ context.Context, _ id.ID, _, _ time.Time) (types.Money, error) {
	return f.paid, nil
}

// --- fixture ---

// env is the standard fixture: a 300 m² building with a 60 m² and a
// 90 m² apartment, an active tenancy in the first one.
type env struct {
	building  *building.Building
	apartment *apartment.Apartment
	other     *apartment.Apartment
	tenant    *tenant.Tenant
	landlord  *landlord.Landlord
	contract  *contracts.Contract
	category  *costcategory.CostCategory

	costs       fakeCosts
	meters      fakeMeters
	meterTypes  fakeMeterTypes
	consumption fakeConsumption
	advances    *fakeAdvances

	// extra tenancies keyed by apartment, for multi-apartment runs
	moreContracts map[id.ID]*contracts.Contract
}

func newEnv() *env {
	bld := building.New("GEB-001", "Musterhaus", "Musterstraße 12", "10115", "Berlin")
	bld.TotalAreaSqm = types.MustMoney("300")

	apt := apartment.New("WHG-001", "EG links", bld.ID, "EG-L", types.MustMoney("60"))
	other := apartment.New("WHG-002", "1. OG rechts", bld.ID, "1OG-R", types.MustMoney("90"))

	ten := tenant.New("MIE-001", apt.ID, "Erika", "Mustermann")
	owner := landlord.New("VM-001", "Hausverwaltung Schmidt GmbH")
	owner.Street = "Verwalterweg 3"
	owner.PostalCode = "10115"
	owner.City = "Berlin"

	contract := contracts.New(apt.ID, ten.ID, "MV-2023-001", date(2023, 4, 1))
	contract.Status = contracts.StatusActive
	contract.LandlordID = &owner.ID

	return &env{
		building:    bld,
		apartment:   apt,
		other:       other,
		tenant:      ten,
		landlord:    owner,
		contract:    contract,
		category:    costcategory.New("BK-GRUND", "Grundsteuer", costcategory.ByArea),
		meterTypes:  fakeMeterTypes{},
		consumption: fakeConsumption{},
		advances:    &fakeAdvances{paid: types.Zero()},
	}
}

func (e *env) calculator() *Calculator {
	return NewCalculator(CalculatorDeps{
		Buildings: fakeBuildings{e.building.ID: e.building},
		Apartments: &fakeApartments{
			byID: map[id.ID]*apartment.Apartment{
				e.apartment.ID: e.apartment,
				e.other.ID:     e.other,
			},
			byBuilding: map[id.ID][]*apartment.Apartment{
				e.building.ID: {e.apartment, e.other},
			},
		},
		Tenants:     fakeTenants{e.tenant.ID: e.tenant},
		Landlords:   fakeLandlords{e.landlord.ID: e.landlord},
		Contracts:   &fakeContracts{contract: e.contract, byApartment: e.moreContracts},
		Costs:       e.costs,
		Meters:      e.meters,
		MeterTypes:  e.meterTypes,
		Consumption: e.consumption,
		Advances:    e.advances,
	})
}

func (e *env) addCost(gross string, method costcategory.DistributionMethod) *costs.CostRecord {
	rec := costs.New(e.building.ID, e.category.ID, "Testkosten", types.MustMoney(gross), types.Zero())
	rec.Method = method
	e.costs = append(e.costs, rec)
	return rec
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, types.MustMoney(want).Equal(got), "want %s, got %s", want, got.String())
}

// --- tests ---

func TestCalculate_ByAreaWorkedExample(t *testing.T) {
	e := newEnv()
	e.addCost("1200", costcategory.ByArea)
	e.advances.paid = types.MustMoney("200")

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "240", stl.CostBreakdown[0].Share)
	assertMoney(t, "240", stl.TotalCosts)
	assertMoney(t, "200", stl.AdvancePayments)
	assertMoney(t, "40", stl.Balance)

	assert.Equal(t, StatusCalculated, stl.Status)
	assert.Equal(t, 2024, stl.Year)
	assertMoney(t, "60", stl.ApartmentArea)
	assertMoney(t, "300", stl.TotalArea)
	assert.NoError(t, stl.Validate(context.Background()))
}

func TestCalculate_AreaSharesAcrossApartmentsSumToAdjusted(t *testing.T) {
	e := newEnv()
	e.building.TotalAreaSqm = types.MustMoney("150")

	tenancy := contracts.New(e.other.ID, e.tenant.ID, "MV-2023-002", date(2023, 4, 1))
	tenancy.Status = contracts.StatusActive
	e.moreContracts = map[id.ID]*contracts.Contract{e.other.ID: tenancy}

	rec := e.addCost("1000", costcategory.ByArea)
	rec.SpreadYears = 2
	rec.DistributionFactor = types.MustMoney("10")

	ctx := context.Background()
	first, err := e.calculator().Calculate(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	second, err := e.calculator().Calculate(ctx, e.other.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	// 1000 / 2 years x 1.10 = 550, split 60:90 over the 150 m² building.
	require.Len(t, first.CostBreakdown, 1)
	require.Len(t, second.CostBreakdown, 1)
	assertMoney(t, "550", first.CostBreakdown[0].AdjustedAmount)
	assertMoney(t, "220", first.CostBreakdown[0].Share)
	assertMoney(t, "330", second.CostBreakdown[0].Share)
	assertMoney(t, "550", first.CostBreakdown[0].Share.Add(second.CostBreakdown[0].Share))
}

func TestCalculate_YearFromPeriodEnd(t *testing.T) {
	e := newEnv()

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2023, 7, 1), date(2024, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, 2024, stl.Year)
}

func TestCalculate_ContractualAdvanceFallback(t *testing.T) {
	e := newEnv()
	e.contract.OperatingAdvance = types.MustMoney("120")
	e.contract.HeatingAdvance = types.MustMoney("80")

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	// 12 months x (120 + 80), no advance incomes recorded.
	assertMoney(t, "2400", stl.AdvancePayments)
	assertMoney(t, "-2400", stl.Balance)
	assert.Equal(t, "refund", stl.BalanceSign())
}

func TestCalculate_TimeProration(t *testing.T) {
	e := newEnv()
	rec := e.addCost("1000", costcategory.ByArea)
	start, end := date(2023, 1, 1), date(2023, 12, 31)
	rec.PeriodStart, rec.PeriodEnd = &start, &end

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2023, 7, 1), date(2023, 12, 31))
	require.NoError(t, err)

	// 184 of 365 record days overlap the period, then 60/300 by area.
	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "100.82", stl.CostBreakdown[0].Share)
}

func TestCalculate_RecordOutsidePeriodExcluded(t *testing.T) {
	e := newEnv()
	rec := e.addCost("1000", costcategory.ByArea)
	start, end := date(2022, 1, 1), date(2022, 12, 31)
	rec.PeriodStart, rec.PeriodEnd = &start, &end

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	assert.Empty(t, stl.CostBreakdown)
	assertMoney(t, "0", stl.TotalCosts)
}

func TestCalculate_SpreadYears(t *testing.T) {
	e := newEnv()
	rec := e.addCost("3000", costcategory.ByArea)
	rec.SpreadYears = 3

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	// 3000 / 3 years = 1000, then 60/300.
	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "1000", stl.CostBreakdown[0].AdjustedAmount)
	assertMoney(t, "200", stl.CostBreakdown[0].Share)
}

func TestCalculate_DistributionFactor(t *testing.T) {
	e := newEnv()
	rec := e.addCost("100", costcategory.ByArea)
	rec.DistributionFactor = types.MustMoney("10")

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	// 100 x 1.10 = 110, then 60/300.
	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "110", stl.CostBreakdown[0].AdjustedAmount)
	assertMoney(t, "22", stl.CostBreakdown[0].Share)
}

func TestCalculate_ByUnits(t *testing.T) {
	e := newEnv()
	e.addCost("100", costcategory.ByUnits)

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "50", stl.CostBreakdown[0].Share)
}

func (e *env) addWaterMeters(t *testing.T) (*meter.Meter, *meter.Meter) {
	t.Helper()
	mt := meter.NewType("MT-WASSER", "Kaltwasser", meter.CategoryWater, "m³")
	e.meterTypes[mt.ID] = mt

	m1 := meter.New("Z-001", "Zähler EG-L", e.building.ID, mt.ID, "W-0001")
	m1.ApartmentID = &e.apartment.ID
	m2 := meter.New("Z-002", "Zähler 1OG-R", e.building.ID, mt.ID, "W-0002")
	m2.ApartmentID = &e.other.ID
	e.meters = append(e.meters, m1, m2)
	return m1, m2
}

func TestCalculate_ByUsageMeteredShare(t *testing.T) {
	e := newEnv()
	m1, m2 := e.addWaterMeters(t)
	e.consumption[m1.ID] = &readings.Consumption{Amount: types.MustMoney("30")}
	e.consumption[m2.ID] = &readings.Consumption{Amount: types.MustMoney("70")}
	e.addCost("1000", costcategory.ByUsage)

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "300", stl.CostBreakdown[0].Share)
	assert.Empty(t, stl.CostBreakdown[0].Note)
}

func TestCalculate_ByUsageFallsBackToAreaWithNote(t *testing.T) {
	e := newEnv()
	m1, m2 := e.addWaterMeters(t)
	// No consumption for the unit's meter: history is missing.
	delete(e.consumption, m1.ID)
	e.consumption[m2.ID] = &readings.Consumption{Amount: types.MustMoney("70")}
	e.addCost("1000", costcategory.ByUsage)

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "200", stl.CostBreakdown[0].Share)
	assert.Equal(t, "consumption unavailable, apportioned by area", stl.CostBreakdown[0].Note)
}

func TestCalculate_ByMeterScopedToReferencedMeter(t *testing.T) {
	e := newEnv()
	m1, m2 := e.addWaterMeters(t)
	e.consumption[m1.ID] = &readings.Consumption{Amount: types.MustMoney("25")}
	e.consumption[m2.ID] = &readings.Consumption{Amount: types.MustMoney("75")}

	rec := e.addCost("400", costcategory.ByMeter)
	rec.MeterID = &m1.ID

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "100", stl.CostBreakdown[0].Share)
}

func TestCalculate_AllocationPercentOverride(t *testing.T) {
	e := newEnv()
	rec := e.addCost("1000", costcategory.ByArea)
	pct := types.MustMoney("50")
	rec.AllocationPercent = &pct

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "500", stl.CostBreakdown[0].Share)
}

func TestCalculate_DirectApartmentCost(t *testing.T) {
	e := newEnv()
	rec := e.addCost("150", costcategory.ByArea)
	rec.ApartmentID = &e.apartment.ID

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "150", stl.CostBreakdown[0].Share)
}

func TestCalculate_ShareClampedToGross(t *testing.T) {
	e := newEnv()
	rec := e.addCost("100", costcategory.ByArea)
	rec.ApartmentID = &e.apartment.ID
	rec.DistributionFactor = types.MustMoney("200")

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	// Adjusted 300 exceeds the gross amount; the share never does.
	require.Len(t, stl.CostBreakdown, 1)
	assertMoney(t, "100", stl.CostBreakdown[0].Share)
}

func TestCalculate_FloorSpaceOverride(t *testing.T) {
	e := newEnv()
	override := types.MustMoney("75")
	e.contract.FloorSpaceOverride = &override
	e.addCost("1200", costcategory.ByArea)

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	assertMoney(t, "75", stl.ApartmentArea)
	assertMoney(t, "300", stl.CostBreakdown[0].Share)
}

func TestCalculate_ConsumptionDetailsWithCostShare(t *testing.T) {
	e := newEnv()
	m1, _ := e.addWaterMeters(t)
	price := types.MustMoney("2.50")
	m1.PricePerUnit = &price

	startReading := readings.New(m1.ID, types.MustMoney("400"), date(2024, 1, 1))
	endReading := readings.New(m1.ID, types.MustMoney("440"), date(2024, 12, 31))
	e.consumption[m1.ID] = &readings.Consumption{
		Amount:       types.MustMoney("40"),
		StartReading: startReading,
		EndReading:   endReading,
	}

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.ConsumptionDetails, 2)

	d := stl.ConsumptionDetails[0]
	assert.Equal(t, "W-0001", d.MeterNumber)
	assert.Equal(t, "m³", d.Unit)
	require.NotNil(t, d.Consumption)
	assertMoney(t, "40", *d.Consumption)
	require.NotNil(t, d.CostShare)
	assertMoney(t, "100", *d.CostShare)
	require.NotNil(t, d.StartValue)
	assertMoney(t, "400", *d.StartValue)

	// The second meter has no history and no price.
	assert.Nil(t, stl.ConsumptionDetails[1].Consumption)
	assert.Nil(t, stl.ConsumptionDetails[1].CostShare)
}

func TestCalculate_ArchivedMetersIgnored(t *testing.T) {
	e := newEnv()
	m1, m2 := e.addWaterMeters(t)
	m2.IsArchived = true
	e.consumption[m1.ID] = &readings.Consumption{Amount: types.MustMoney("30")}
	e.consumption[m2.ID] = &readings.Consumption{Amount: types.MustMoney("999")}

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, stl.ConsumptionDetails, 1)
	assert.Equal(t, m1.ID, stl.ConsumptionDetails[0].MeterID)
}

func TestCalculate_Snapshot(t *testing.T) {
	e := newEnv()
	e.contract.RentNet = types.MustMoney("650")

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	snap := stl.Snapshot
	assert.Equal(t, e.contract.ID, snap.ContractID)
	assert.Equal(t, "MV-2023-001", snap.ContractNumber)
	assert.Equal(t, "Erika Mustermann", snap.TenantName)
	assert.Equal(t, "EG-L", snap.ApartmentNumber)
	assert.Equal(t, "Hausverwaltung Schmidt GmbH", snap.LandlordName)
	assertMoney(t, "650", snap.RentNet)
}

func TestCalculate_SnapshotSurvivesMissingLandlord(t *testing.T) {
	e := newEnv()
	unknown := id.New()
	e.contract.LandlordID = &unknown

	stl, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, stl.Snapshot.LandlordName)
}

func TestCalculate_Idempotent(t *testing.T) {
	e := newEnv()
	e.addCost("1200", costcategory.ByArea)
	e.advances.paid = types.MustMoney("200")
	calc := e.calculator()

	first, err := calc.Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	second, err := calc.Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	assert.True(t, first.TotalCosts.Equal(second.TotalCosts))
	assert.True(t, first.AdvancePayments.Equal(second.AdvancePayments))
	assert.True(t, first.Balance.Equal(second.Balance))
	assert.Equal(t, len(first.CostBreakdown), len(second.CostBreakdown))
}

func TestCalculate_NoTenantForPeriod(t *testing.T) {
	e := newEnv()
	e.contract.TenantID = id.New()

	_, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculate_NoContract(t *testing.T) {
	e := newEnv()
	e.contract = nil
	calc := NewCalculator(CalculatorDeps{
		Buildings: fakeBuildings{e.building.ID: e.building},
		Apartments: &fakeApartments{
			byID:       map[id.ID]*apartment.Apartment{e.apartment.ID: e.apartment},
			byBuilding: map[id.ID][]*apartment.Apartment{e.building.ID: {e.apartment}},
		},
		Tenants:     fakeTenants{},
		Landlords:   fakeLandlords{},
		Contracts:   &fakeContracts{},
		Costs:       e.costs,
		Meters:      e.meters,
		MeterTypes:  e.meterTypes,
		Consumption: e.consumption,
		Advances:    e.advances,
	})

	_, err := calc.Calculate(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestCalculate_InvertedPeriod(t *testing.T) {
	e := newEnv()
	_, err := e.calculator().Calculate(context.Background(), e.apartment.ID, date(2024, 12, 31), date(2024, 1, 1))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
