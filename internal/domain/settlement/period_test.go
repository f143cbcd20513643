package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsSpanned(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"full calendar year", date(2024, 1, 1), date(2024, 12, 31), 12},
		{"half year", date(2024, 7, 1), date(2024, 12, 31), 6},
		{"single month", date(2024, 3, 1), date(2024, 3, 31), 1},
		{"single day", date(2024, 3, 15), date(2024, 3, 15), 1},
		{"mid-month to mid-month", date(2024, 1, 15), date(2024, 2, 14), 1},
		{"mid-month crossing anchor", date(2024, 1, 15), date(2024, 2, 15), 2},
		{"two full years", date(2023, 1, 1), date(2024, 12, 31), 24},
		{"end before start", date(2024, 5, 1), date(2024, 4, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthsSpanned(tt.start, tt.end))
		})
	}
}

func TestDaysInclusive(t *testing.T) {
	assert.Equal(t, 366, DaysInclusive(date(2024, 1, 1), date(2024, 12, 31)))
	assert.Equal(t, 365, DaysInclusive(date(2023, 1, 1), date(2023, 12, 31)))
	assert.Equal(t, 1, DaysInclusive(date(2024, 6, 1), date(2024, 6, 1)))
	assert.Equal(t, 0, DaysInclusive(date(2024, 6, 2), date(2024, 6, 1)))
}

func TestOverlapDays(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       int
	}{
		{
			"second half of record year",
			date(2023, 1, 1), date(2023, 12, 31),
			date(2023, 7, 1), date(2023, 12, 31),
			184,
		},
		{
			"identical ranges",
			date(2024, 1, 1), date(2024, 12, 31),
			date(2024, 1, 1), date(2024, 12, 31),
			366,
		},
		{
			"no overlap",
			date(2023, 1, 1), date(2023, 12, 31),
			date(2024, 1, 1), date(2024, 12, 31),
			0,
		},
		{
			"single shared day",
			date(2024, 1, 1), date(2024, 6, 30),
			date(2024, 6, 30), date(2024, 12, 31),
			1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverlapDays(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
		})
	}
}
