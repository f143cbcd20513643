package finance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/core/id"
	"mietwerk/internal/core/types"
)

func TestIncomeValidate(t *testing.T) {
	ctx := context.Background()
	received := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(i *Income)
		wantErr bool
	}{
		{"valid without split", func(i *Income) {}, false},
		{"missing contract", func(i *Income) { i.ContractID = id.ID{} }, true},
		{"zero amount", func(i *Income) { i.Amount = types.Zero() }, true},
		{"negative amount", func(i *Income) { i.Amount = types.MustMoney("-850") }, true},
		{"zero received date", func(i *Income) { i.ReceivedOn = time.Time{} }, true},
		{"split matches amount", func(i *Income) {
			i.RentPortion = types.MustMoney("650")
			i.ServiceChargePortion = types.MustMoney("200")
		}, false},
		{"split short of amount", func(i *Income) {
			i.RentPortion = types.MustMoney("650")
			i.ServiceChargePortion = types.MustMoney("100")
		}, true},
		{"split exceeds amount", func(i *Income) {
			i.RentPortion = types.MustMoney("900")
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income := New(id.New(), types.MustMoney("850"), received)
			tt.mutate(income)
			err := income.Validate(ctx)
			if tt.wantErr {
				assert.True(t, apperror.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllocateComponents(t *testing.T) {
	received := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)

	t.Run("full payment covers all components", func(t *testing.T) {
		income := New(id.New(), types.MustMoney("875"), received)
		income.AllocateComponents(types.MustMoney("650"), types.MustMoney("200"))

		assert.True(t, types.MustMoney("650").Equal(income.RentPortion))
		assert.True(t, types.MustMoney("200").Equal(income.ServiceChargePortion))
		assert.True(t, types.MustMoney("25").Equal(income.SpecialPortion))
		assert.NoError(t, income.Validate(context.Background()))
	})

	t.Run("partial payment fills rent first", func(t *testing.T) {
		income := New(id.New(), types.MustMoney("700"), received)
		income.AllocateComponents(types.MustMoney("650"), types.MustMoney("200"))

		assert.True(t, types.MustMoney("650").Equal(income.RentPortion))
		assert.True(t, types.MustMoney("50").Equal(income.ServiceChargePortion))
		assert.True(t, income.SpecialPortion.IsZero())
	})

	t.Run("payment below rent", func(t *testing.T) {
		income := New(id.New(), types.MustMoney("400"), received)
		income.AllocateComponents(types.MustMoney("650"), types.MustMoney("200"))

		assert.True(t, types.MustMoney("400").Equal(income.RentPortion))
		assert.True(t, income.ServiceChargePortion.IsZero())
		assert.True(t, income.SpecialPortion.IsZero())
	})

	t.Run("split always sums to the amount", func(t *testing.T) {
		income := New(id.New(), types.MustMoney("1234.56"), received)
		income.AllocateComponents(types.MustMoney("650"), types.MustMoney("200"))

		sum := income.RentPortion.Add(income.ServiceChargePortion).Add(income.SpecialPortion)
		assert.True(t, income.Amount.Equal(sum))
	})
}
