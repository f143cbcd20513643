package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCents(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already exact", "100.00", "100"},
		{"half up", "10.005", "10.01"},
		{"truncating third", "33.333333", "33.33"},
		{"negative half up", "-10.005", "-10.01"},
		{"long fraction", "100.821917808219178", "100.82"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundCents(MustMoney(tt.in))
			assert.True(t, MustMoney(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.True(t, MustMoney("0.19").Equal(Percent(MustMoney("19"))))
	assert.True(t, MustMoney("1").Equal(Percent(MustMoney("100"))))
	assert.True(t, Zero().Equal(Percent(Zero())))
}

func TestGrossFromNet(t *testing.T) {
	tests := []struct {
		name string
		net  string
		rate string
		want string
	}{
		{"standard vat", "1008.40", "19", "1200"},
		{"reduced vat", "100", "7", "107"},
		{"zero rate", "250.50", "0", "250.5"},
		{"rounded up", "99.99", "19", "118.99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GrossFromNet(MustMoney(tt.net), MustMoney(tt.rate))
			assert.True(t, MustMoney(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestClampMoney(t *testing.T) {
	lo := Zero()
	hi := MustMoney("100")

	assert.True(t, hi.Equal(ClampMoney(MustMoney("150"), lo, hi)))
	assert.True(t, lo.Equal(ClampMoney(MustMoney("-5"), lo, hi)))
	assert.True(t, MustMoney("42.42").Equal(ClampMoney(MustMoney("42.42"), lo, hi)))
	assert.True(t, lo.Equal(ClampMoney(lo, lo, hi)))
	assert.True(t, hi.Equal(ClampMoney(hi, lo, hi)))
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("12.34")
	require.NoError(t, err)
	assert.True(t, MustMoney("12.34").Equal(m))

	_, err = NewMoneyFromString("not a number")
	assert.Error(t, err)
}
