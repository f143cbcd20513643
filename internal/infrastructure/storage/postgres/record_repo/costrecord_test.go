package record_repo

import (
	"strings"
	"testing"
	"time"

	"mietwerk/internal/core/id"
)

func TestSettlementQuery_Predicate(t *testing.T) {
	repo := NewCostRecordRepo(nil)

	buildingID := id.New()
	apartmentID := id.New()
	periodStart := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.settlementQuery(buildingID, apartmentID, periodStart, periodEnd).ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}

	parts := strings.SplitN(sql, " WHERE ", 2)
	if len(parts) != 2 {
		t.Fatalf("query has no WHERE clause: %s", sql)
	}
	if !strings.HasPrefix(parts[0], "SELECT ") || !strings.HasSuffix(parts[0], " FROM rec_cost_records") {
		t.Errorf("unexpected select head: %s", parts[0])
	}

	wantWhere := "building_id = $1 AND deletion_mark = $2 AND is_archived = $3 AND " +
		"(apartment_id IS NULL OR apartment_id = $4) AND " +
		"((period_start IS NOT NULL AND period_start <= $5 AND period_end >= $6) OR " +
		"(period_start IS NULL AND invoice_date IS NOT NULL AND invoice_date >= $7 AND invoice_date <= $8)) " +
		"ORDER BY created_at ASC"
	if parts[1] != wantWhere {
		t.Errorf("predicate mismatch\nwant: %s\ngot:  %s", wantWhere, parts[1])
	}

	wantArgs := []any{buildingID, false, false, apartmentID, periodEnd, periodStart, periodStart, periodEnd}
	if len(args) != len(wantArgs) {
		t.Fatalf("args count mismatch\nwant: %d\ngot:  %d", len(wantArgs), len(args))
	}
	for i, want := range wantArgs {
		if args[i] != want {
			t.Errorf("arg %d mismatch\nwant: %v\ngot:  %v", i, want, args[i])
		}
	}
}
