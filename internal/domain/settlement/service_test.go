package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/domain"
	"mietwerk/internal/domain/catalogs/costcategory"
)

type memSettlements struct {
	items []*Settlement
}

func (r *memSettlements) Create(_ context.Context, s *Settlement) error {
	r.items = append(r.items, s)
	return nil
}

func (r *memSettlements) GetByID(_ context.Context, settlementID id.ID) (*Settlement, error) {
	for _, s := range r.items {
		if s.ID == settlementID && !s.DeletionMark {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("settlement", settlementID.String())
}

func (r *memSettlements) Update(_ context.Context, s *Settlement) error {
	for i, existing := range r.items {
		if existing.ID == s.ID {
			r.items[i] = s
			return nil
		}
	}
	return apperror.NewNotFound("settlement", s.ID.String())
}

func (r *memSettlements) SetDeletionMark(_ context.Context, settlementID id.ID, marked bool) error {
	for _, s := range r.items {
		if s.ID == settlementID {
			s.DeletionMark = marked
			return nil
		}
	}
	return apperror.NewNotFound("settlement", settlementID.String())
}

func (r *memSettlements) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*Settlement], error) {
	return domain.ListResult[*Settlement]{Items: r.items, TotalCount: int64(len(r.items))}, nil
}

func (r *memSettlements) FindForPeriod(_ context.Context, apartmentID id.ID, periodStart, periodEnd time.Time) (*Settlement, error) {
	for _, s := range r.items {
		if s.DeletionMark || s.IsArchived {
			continue
		}
		if s.ApartmentID == apartmentID && s.PeriodStart.Equal(periodStart) && s.PeriodEnd.Equal(periodEnd) {
			return s, nil
		}
	}
	return nil, nil
}

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newServiceEnv() (*env, *memSettlements, *Service) {
	e := newEnv()
	e.addCost("1200", costcategory.ByArea)
	repo := &memSettlements{}
	svc := NewService(e.calculator(), repo, passthroughTx{})
	return e, repo, svc
}

func TestCalculateAndStore_StoresResult(t *testing.T) {
	e, repo, svc := newServiceEnv()

	stl, err := svc.CalculateAndStore(context.Background(), e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.Len(t, repo.items, 1)
	assert.Equal(t, stl.ID, repo.items[0].ID)
	assert.Equal(t, StatusCalculated, stl.Status)
	assertMoney(t, "240", stl.TotalCosts)
}

func TestCalculateAndStore_ReplacesUnlockedSettlement(t *testing.T) {
	e, repo, svc := newServiceEnv()
	ctx := context.Background()

	first, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	second, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	require.Len(t, repo.items, 2)
	stored, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsArchived)

	current, err := repo.FindForPeriod(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)
}

func TestCalculateAndStore_AbortsOnLockedSettlement(t *testing.T) {
	e, repo, svc := newServiceEnv()
	ctx := context.Background()

	first, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	first.Status = StatusApproved
	require.NoError(t, repo.Update(ctx, first))

	_, err = svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSettlementLocked, appErr.Code)

	require.Len(t, repo.items, 1)
	assert.False(t, repo.items[0].IsArchived)
}

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusDraft, StatusCalculated, true},
		{StatusDraft, StatusApproved, false},
		{StatusCalculated, StatusApproved, true},
		{StatusCalculated, StatusDraft, true},
		{StatusCalculated, StatusSent, false},
		{StatusApproved, StatusSent, true},
		{StatusApproved, StatusDisputed, true},
		{StatusApproved, StatusCalculated, false},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusDisputed, true},
		{StatusSent, StatusApproved, false},
		{StatusDisputed, StatusCalculated, true},
		{StatusDisputed, StatusApproved, true},
		{StatusDisputed, StatusPaid, false},
		{StatusPaid, StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, transitionAllowed(tt.from, tt.to))
		})
	}
}

func TestTransition_UpdatesStatus(t *testing.T) {
	e, repo, svc := newServiceEnv()
	ctx := context.Background()

	stl, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.NoError(t, svc.Transition(ctx, stl.ID, StatusApproved))

	got, err := repo.GetByID(ctx, stl.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, got.Status)
	assert.True(t, got.IsLocked())
}

func TestTransition_RejectsIllegalMove(t *testing.T) {
	e, repo, svc := newServiceEnv()
	ctx := context.Background()

	stl, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	err = svc.Transition(ctx, stl.ID, StatusPaid)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	got, err := repo.GetByID(ctx, stl.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCalculated, got.Status)
}

func TestArchive(t *testing.T) {
	e, repo, svc := newServiceEnv()
	ctx := context.Background()

	stl, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	require.NoError(t, svc.Archive(ctx, stl.ID))
	got, err := repo.GetByID(ctx, stl.ID)
	require.NoError(t, err)
	assert.True(t, got.IsArchived)
}

func TestArchive_RejectsLockedSettlement(t *testing.T) {
	e, _, svc := newServiceEnv()
	ctx := context.Background()

	stl, err := svc.CalculateAndStore(ctx, e.apartment.ID, date(2024, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)
	require.NoError(t, svc.Transition(ctx, stl.ID, StatusApproved))

	err = svc.Archive(ctx, stl.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeSettlementLocked, appErr.Code)
}
