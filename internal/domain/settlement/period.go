package settlement

import (
	"time"
)

// dateOnly truncates a timestamp to its calendar date (UTC).
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MonthsSpanned counts the whole months covered by the inclusive range
// [start, end], never less than 1. A full calendar year counts as 12.
func MonthsSpanned(start, end time.Time) int {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return 1
	}

	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	months++

	if months < 1 {
		return 1
	}
	return months
}

// DaysInclusive counts the days in the inclusive range [start, end].
// Returns 0 when end precedes start.
func DaysInclusive(start, end time.Time) int {
	start, end = dateOnly(start), dateOnly(end)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// OverlapDays counts the days the inclusive ranges [aStart, aEnd] and
// [bStart, bEnd] have in common.
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	return DaysInclusive(start, end)
}
