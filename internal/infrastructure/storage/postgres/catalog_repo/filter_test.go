package catalog_repo

import (
	"testing"

	"mietwerk/internal/core/apperror"
	"mietwerk/internal/domain/filter"
)

func newTestRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any](nil, "test_table", []string{"id", "col1", "name"}, func() any { return nil })
}

func TestApplyAdvancedFilters_Operators(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "Equal",
			item:     filter.Item{Field: "col1", Operator: filter.Equal, Value: 10},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 = $1",
			wantArgs: []any{10},
		},
		{
			name:     "NotEqual",
			item:     filter.Item{Field: "col1", Operator: filter.NotEqual, Value: 10},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 <> $1",
			wantArgs: []any{10},
		},
		{
			name:     "Greater",
			item:     filter.Item{Field: "col1", Operator: filter.Greater, Value: 10},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 > $1",
			wantArgs: []any{10},
		},
		{
			name:     "GreaterOrEqual",
			item:     filter.Item{Field: "col1", Operator: filter.GreaterOrEqual, Value: 10},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 >= $1",
			wantArgs: []any{10},
		},
		{
			name:     "Less",
			item:     filter.Item{Field: "col1", Operator: filter.Less, Value: 5},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 < $1",
			wantArgs: []any{5},
		},
		{
			name:     "LessOrEqual",
			item:     filter.Item{Field: "col1", Operator: filter.LessOrEqual, Value: 5},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE col1 <= $1",
			wantArgs: []any{5},
		},
		{
			name:     "Contains",
			item:     filter.Item{Field: "name", Operator: filter.Contains, Value: "haus"},
			wantSQL:  "SELECT id, col1, name FROM test_table WHERE name ILIKE $1",
			wantArgs: []any{"%haus%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.ApplyAdvancedFilters(repo.BaseSelect(), []filter.Item{tt.item})
			if err != nil {
				t.Fatalf("ApplyAdvancedFilters failed: %v", err)
			}

			sql, args, err := q.ToSql()
			if err != nil {
				t.Fatalf("ToSql failed: %v", err)
			}

			if sql != tt.wantSQL {
				t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", tt.wantSQL, sql)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("Args count mismatch\nwant: %d\ngot:  %d", len(tt.wantArgs), len(args))
			}
			if args[0] != tt.wantArgs[0] {
				t.Errorf("Args mismatch\nwant: %v\ngot:  %v", tt.wantArgs[0], args[0])
			}
		})
	}
}

func TestApplyAdvancedFilters_NullChecks(t *testing.T) {
	repo := newTestRepo()

	q, err := repo.ApplyAdvancedFilters(repo.BaseSelect(), []filter.Item{
		{Field: "col1", Operator: filter.IsNull},
	})
	if err != nil {
		t.Fatalf("ApplyAdvancedFilters failed: %v", err)
	}
	sql, _, err := q.ToSql()
	if err != nil {
		t.Fatalf("ToSql failed: %v", err)
	}
	want := "SELECT id, col1, name FROM test_table WHERE col1 IS NULL"
	if sql != want {
		t.Errorf("SQL mismatch\nwant: %s\ngot:  %s", want, sql)
	}
}

func TestApplyAdvancedFilters_RejectsUnknownColumn(t *testing.T) {
	repo := newTestRepo()

	_, err := repo.ApplyAdvancedFilters(repo.BaseSelect(), []filter.Item{
		{Field: "secret_col", Operator: filter.Equal, Value: 1},
	})
	if err == nil {
		t.Fatal("expected error for non-whitelisted column")
	}
}

func TestParseOrderBy(t *testing.T) {
	repo := newTestRepo()

	tests := []struct {
		name    string
		orderBy string
		want    string
		wantErr bool
	}{
		{"default", "", "name ASC", false},
		{"ascending", "code", "code ASC", false},
		{"explicit plus", "+code", "code ASC", false},
		{"descending", "-created_at", "created_at DESC", false},
		{"repo column", "col1", "col1 ASC", false},
		{"unknown field", "evil_col", "", true},
		{"bare minus", "-", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ParseOrderBy(tt.orderBy)
			if tt.wantErr {
				if !apperror.IsValidation(err) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOrderBy failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("want %q got %q", tt.want, got)
			}
		})
	}
}
