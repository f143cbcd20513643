package readings

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
	"mietwerk/internal/domain"
	"mietwerk/internal/domain/catalogs/meter"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- in-memory doubles ---

type memReadings struct {
	items []*MeterReading
}

func (r *memReadings) add(meterID id.ID, value string, d time.Time) *MeterReading {
	reading := New(meterID, types.MustMoney(value), d)
	r.items = append(r.items, reading)
	return reading
}

func (r *memReadings) Create(_ context.Context, reading *MeterReading) error {
	r.items = append(r.items, reading)
	return nil
}

func (r *memReadings) GetByID(_ context.Context, rid id.ID) (*MeterReading, error) {
	for _, it := range r.items {
		if it.ID == rid {
			return it, nil
		}
	}
	return nil, apperror.NewNotFound("meter reading", rid.String())
}

func (r *memReadings) Archive(_ context.Context, rid id.ID) error {
	for _, it := range r.items {
		if it.ID == rid {
			it.IsArchived = true
			return nil
		}
	}
	return apperror.NewNotFound("meter reading", rid.String())
}

func (r *memReadings) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*MeterReading], error) {
	return domain.ListResult[*MeterReading]{Items: r.items, TotalCount: int64(len(r.items))}, nil
}

func (r *memReadings) active(meterID id.ID, ignoreIDs []id.ID) []*MeterReading {
	ignored := make(map[id.ID]bool, len(ignoreIDs))
	for _, iid := range ignoreIDs {
		ignored[iid] = true
	}
	var out []*MeterReading
	for _, it := range r.items {
		if it.MeterID == meterID && !it.IsArchived && !ignored[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func (r *memReadings) LatestOnOrBefore(_ context.Context, meterID id.ID, d time.Time) (*MeterReading, error) {
	var best *MeterReading
	for _, it := range r.active(meterID, nil) {
		if it.ReadingDate.After(d) {
			continue
		}
		if best == nil || it.ReadingDate.After(best.ReadingDate) {
			best = it
		}
	}
	return best, nil
}

func (r *memReadings) EarliestOnOrAfter(_ context.Context, meterID id.ID, d time.Time) (*MeterReading, error) {
	var best *MeterReading
	for _, it := range r.active(meterID, nil) {
		if it.ReadingDate.Before(d) {
			continue
		}
		if best == nil || it.ReadingDate.Before(best.ReadingDate) {
			best = it
		}
	}
	return best, nil
}

func (r *memReadings) LatestActive(_ context.Context, meterID id.ID, ignoreIDs []id.ID) (*MeterReading, error) {
	var best *MeterReading
	for _, it := range r.active(meterID, ignoreIDs) {
		if best == nil || it.ReadingDate.After(best.ReadingDate) {
			best = it
		}
	}
	return best, nil
}

func (r *memReadings) ListByMeter(_ context.Context, meterID id.ID) ([]*MeterReading, error) {
	out := r.active(meterID, nil)
	sort.Slice(out, func(i, j int) bool { return out[i].ReadingDate.Before(out[j].ReadingDate) })
	return out, nil
}

type memMeters struct {
	byID map[id.ID]*meter.Meter
	subs map[id.ID][]*meter.Meter
}

func newMemMeters() *memMeters {
	return &memMeters{
		byID: make(map[id.ID]*meter.Meter),
		subs: make(map[id.ID][]*meter.Meter),
	}
}

func (s *memMeters) add(m *meter.Meter) {
	s.byID[m.ID] = m
	if m.ParentMeterID != nil {
		s.subs[*m.ParentMeterID] = append(s.subs[*m.ParentMeterID], m)
	}
}

func (s *memMeters) GetByID(_ context.Context, mid id.ID) (*meter.Meter, error) {
	if m, ok := s.byID[mid]; ok {
		return m, nil
	}
	return nil, apperror.NewNotFound("meter", mid.String())
}

func (s *memMeters) ListSubMeters(_ context.Context, parentID id.ID) ([]*meter.Meter, error) {
	return s.subs[parentID], nil
}

type noopTx struct{}

func (noopTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// hierarchyFixture wires a main water meter with two sub-meters.
type hierarchyFixture struct {
	meters   *memMeters
	readings *memReadings
	main     *meter.Meter
	sub1     *meter.Meter
	sub2     *meter.Meter
	typeID   id.ID
}

func newHierarchyFixture() *hierarchyFixture {
	buildingID := id.New()
	typeID := id.New()

	main := meter.New("Z-MAIN", "Hauptzähler", buildingID, typeID, "W-0001")
	main.IsMain = true
	sub1 := meter.New("Z-SUB1", "Zähler EG", buildingID, typeID, "W-0002")
	sub1.ParentMeterID = &main.ID
	sub2 := meter.New("Z-SUB2", "Zähler OG", buildingID, typeID, "W-0003")
	sub2.ParentMeterID = &main.ID

	meters := newMemMeters()
	meters.add(main)
	meters.add(sub1)
	meters.add(sub2)

	return &hierarchyFixture{
		meters:   meters,
		readings: &memReadings{},
		main:     main,
		sub1:     sub1,
		sub2:     sub2,
		typeID:   typeID,
	}
}

func (f *hierarchyFixture) validator() *HierarchyValidator {
	return NewHierarchyValidator(f.meters, f.readings, false)
}

// --- hierarchy validator ---

func TestHierarchyValidator_SubExceedsParent(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))

	err := f.validator().Validate(context.Background(), f.sub1, types.MustMoney("100.5"), nil)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReadingRejected, appErr.Code)
}

func TestHierarchyValidator_SubWithinTolerance(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))
	f.readings.add(f.sub2.ID, "0", date(2024, 1, 1))

	// 100.00005 exceeds the parent by less than the tolerance, and the
	// sibling sum 100.00005 matches the parent within tolerance too.
	err := f.validator().Validate(context.Background(), f.sub1, types.MustMoney("100.00005"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_SiblingSumMismatch(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))
	f.readings.add(f.sub2.ID, "60", date(2024, 1, 1))

	// 30 + 60 = 90 != 100.
	err := f.validator().Validate(context.Background(), f.sub1, types.MustMoney("30"), nil)
	require.Error(t, err)

	// 40 + 60 = 100 fits.
	err = f.validator().Validate(context.Background(), f.sub1, types.MustMoney("40"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_NoParentReadingAcceptsAnything(t *testing.T) {
	f := newHierarchyFixture()

	err := f.validator().Validate(context.Background(), f.sub1, types.MustMoney("12345"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_ParentAgainstSubs(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.sub1.ID, "40", date(2024, 1, 1))
	f.readings.add(f.sub2.ID, "60", date(2024, 1, 1))

	err := f.validator().Validate(context.Background(), f.main, types.MustMoney("90"), nil)
	require.Error(t, err)

	err = f.validator().Validate(context.Background(), f.main, types.MustMoney("100"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_ParentUnconstrainedWithoutSubReadings(t *testing.T) {
	f := newHierarchyFixture()

	err := f.validator().Validate(context.Background(), f.main, types.MustMoney("5000"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_ArchivedSubsIgnored(t *testing.T) {
	f := newHierarchyFixture()
	f.sub2.IsArchived = true
	f.readings.add(f.sub1.ID, "40", date(2024, 1, 1))
	f.readings.add(f.sub2.ID, "60", date(2024, 1, 1))

	// Only sub1 constrains the parent now.
	err := f.validator().Validate(context.Background(), f.main, types.MustMoney("40"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_LeavesStoreSlicesIntact(t *testing.T) {
	f := newHierarchyFixture()
	f.sub1.IsArchived = true
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))

	err := f.validator().Validate(context.Background(), f.sub2, types.MustMoney("100"), nil)
	assert.NoError(t, err)

	// Filtering archived sub-meters must not rewrite the store's slice.
	subs, err := f.meters.ListSubMeters(context.Background(), f.main.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, f.sub1.ID, subs[0].ID)
	assert.Equal(t, f.sub2.ID, subs[1].ID)
}

func TestHierarchyValidator_Disabled(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))

	v := NewHierarchyValidator(f.meters, f.readings, true)
	err := v.Validate(context.Background(), f.sub1, types.MustMoney("99999"), nil)
	assert.NoError(t, err)
}

func TestHierarchyValidator_IgnoreIDsExcludesCorrectedReading(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))
	old := f.readings.add(f.sub1.ID, "100", date(2024, 1, 1))

	// Replacing sub1's reading: the old value must not count into the
	// sibling sum, otherwise no correction could ever pass.
	err := f.validator().Validate(context.Background(), f.sub1, types.MustMoney("100"), []id.ID{old.ID})
	assert.NoError(t, err)
}

// --- consumption resolver ---

func TestConsumption_Delta(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.sub1.ID, "400", date(2024, 1, 1))
	f.readings.add(f.sub1.ID, "520", date(2024, 12, 31))

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, cons)
	assert.True(t, types.MustMoney("120").Equal(cons.Amount))
	assert.Equal(t, date(2024, 1, 1), cons.StartReading.ReadingDate)
	assert.Equal(t, date(2024, 12, 31), cons.EndReading.ReadingDate)
}

func TestConsumption_Multiplier(t *testing.T) {
	f := newHierarchyFixture()
	f.sub1.Multiplier = types.MustMoney("10")
	f.readings.add(f.sub1.ID, "400", date(2024, 1, 1))
	f.readings.add(f.sub1.ID, "412", date(2024, 12, 31))

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, cons)
	assert.True(t, types.MustMoney("120").Equal(cons.Amount))
}

func TestConsumption_LenientBoundaries(t *testing.T) {
	f := newHierarchyFixture()
	// No reading at the period start; the earliest one after it is used.
	f.readings.add(f.sub1.ID, "405", date(2024, 2, 15))
	f.readings.add(f.sub1.ID, "520", date(2024, 12, 31))

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, cons)
	assert.True(t, types.MustMoney("115").Equal(cons.Amount))
}

func TestConsumption_MissingHistory(t *testing.T) {
	f := newHierarchyFixture()

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.Nil(t, cons)
}

func TestConsumption_NegativeDelta(t *testing.T) {
	f := newHierarchyFixture()
	// Meter swap mid-period: register restarted below the old value.
	f.readings.add(f.sub1.ID, "900", date(2024, 1, 1))
	f.readings.add(f.sub1.ID, "50", date(2024, 12, 31))

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.Nil(t, cons)
}

func TestConsumption_ArchivedReadingsExcluded(t *testing.T) {
	f := newHierarchyFixture()
	mistaken := f.readings.add(f.sub1.ID, "999", date(2024, 12, 31))
	mistaken.IsArchived = true
	f.readings.add(f.sub1.ID, "400", date(2024, 1, 1))
	f.readings.add(f.sub1.ID, "520", date(2024, 12, 31))

	r := NewConsumptionResolver(f.readings)
	cons, err := r.Consumption(context.Background(), f.sub1, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, cons)
	assert.True(t, types.MustMoney("120").Equal(cons.Amount))
}

// --- reading service ---

func TestService_CreateRejectsArchivedMeter(t *testing.T) {
	f := newHierarchyFixture()
	f.sub1.IsArchived = true
	svc := NewService(f.readings, f.meters, f.validator(), noopTx{})

	err := svc.Create(context.Background(), New(f.sub1.ID, types.MustMoney("10"), date(2024, 1, 1)))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_CreateRunsHierarchyValidation(t *testing.T) {
	f := newHierarchyFixture()
	f.readings.add(f.main.ID, "100", date(2024, 1, 1))
	svc := NewService(f.readings, f.meters, f.validator(), noopTx{})

	err := svc.Create(context.Background(), New(f.sub1.ID, types.MustMoney("150"), date(2024, 2, 1)))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeReadingRejected, appErr.Code)
}

func TestService_CorrectArchivesOriginal(t *testing.T) {
	f := newHierarchyFixture()
	original := f.readings.add(f.sub1.ID, "400", date(2024, 6, 1))
	svc := NewService(f.readings, f.meters, f.validator(), noopTx{})

	correction, err := svc.Correct(context.Background(), original.ID, types.MustMoney("410"), date(2024, 6, 1))
	require.NoError(t, err)

	assert.True(t, original.IsArchived)
	assert.Equal(t, TypeCorrection, correction.Type)
	require.NotNil(t, correction.CorrectionOf)
	assert.Equal(t, original.ID, *correction.CorrectionOf)

	latest, err := f.readings.LatestActive(context.Background(), f.sub1.ID, nil)
	require.NoError(t, err)
	assert.True(t, types.MustMoney("410").Equal(latest.Value))
}

func TestService_CorrectRejectsAlreadySuperseded(t *testing.T) {
	f := newHierarchyFixture()
	original := f.readings.add(f.sub1.ID, "400", date(2024, 6, 1))
	original.IsArchived = true
	svc := NewService(f.readings, f.meters, f.validator(), noopTx{})

	_, err := svc.Correct(context.Background(), original.ID, types.MustMoney("410"), date(2024, 6, 1))
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}
