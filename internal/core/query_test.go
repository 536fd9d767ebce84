package core

import (
	"math"
	"slices"
	"testing"
	"time"
)

func TestBuildListQueryDefaults(t *testing.T) {
	q, err := BuildListQuery(ListParams{}, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Page != 1 || q.Limit != 20 || q.Skip != 0 {
		t.Fatalf("page=%d limit=%d skip=%d", q.Page, q.Limit, q.Skip)
	}
	want := []SortField{{Field: SortDate, Desc: true}, {Field: SortID}}
	if !slices.Equal(q.Sort, want) {
		t.Fatalf("sort = %+v, want %+v", q.Sort, want)
	}
	if q.Filter.Category != "" || q.Filter.From != nil || q.Filter.To != nil {
		t.Fatalf("filter should be empty: %+v", q.Filter)
	}
}

func TestBuildListQueryWindow(t *testing.T) {
	tests := []struct {
		name      string
		params    ListParams
		wantSkip  int64
		wantLimit int64
	}{
		{"page 2 limit 10", ListParams{Page: 2, Limit: 10}, 10, 10},
		{"page 3 default limit", ListParams{Page: 3}, 40, 20},
		{"limit clamped", ListParams{Page: 2, Limit: 1000}, 100, 100},
		{"largest page saturates skip", ListParams{Page: math.MaxInt, Limit: 2}, math.MaxInt64, 2},
		{"largest exact window", ListParams{Page: math.MaxInt/100 + 1, Limit: 100}, (math.MaxInt / 100) * 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildListQuery(tt.params, DefaultQueryOptions())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Skip != tt.wantSkip || q.Limit != tt.wantLimit {
				t.Errorf("skip=%d limit=%d, want skip=%d limit=%d", q.Skip, q.Limit, tt.wantSkip, tt.wantLimit)
			}
		})
	}
}

func TestBuildListQueryDateRange(t *testing.T) {
	q, err := BuildListQuery(ListParams{StartDate: "2024-01-01", EndDate: "2024-01-31"}, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantFrom := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, 1, 31, 23, 59, 59, 999000000, time.UTC)
	if q.Filter.From == nil || !q.Filter.From.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", q.Filter.From, wantFrom)
	}
	if q.Filter.To == nil || !q.Filter.To.Equal(wantTo) {
		t.Errorf("to = %v, want %v", q.Filter.To, wantTo)
	}

	q, err = BuildListQuery(ListParams{EndDate: "2024-01-31T12:00:00Z"}, DefaultQueryOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Filter.From != nil {
		t.Errorf("from should be unset")
	}
	if q.Filter.To == nil || !q.Filter.To.Equal(time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp end bound should be kept as is, got %v", q.Filter.To)
	}
}

func TestBuildListQueryRejects(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		field  string
	}{
		{"negative page", ListParams{Page: -1}, "page"},
		{"negative limit", ListParams{Limit: -5}, "limit"},
		{"bad start date", ListParams{StartDate: "soon"}, "startDate"},
		{"bad end date", ListParams{EndDate: "later"}, "endDate"},
		{"start date past year 9999", ListParams{StartDate: "253402300800000"}, "startDate"},
		{"inverted range", ListParams{StartDate: "2024-02-01", EndDate: "2024-01-01"}, "endDate"},
		{"unknown sort field", ListParams{Sort: "-password"}, "sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildListQuery(tt.params, DefaultQueryOptions())
			ve, ok := AsValidationError(err)
			if !ok {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if !ve.Has(tt.field) {
				t.Errorf("expected violation on %s, got %+v", tt.field, ve.Violations)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	got, err := ParseSort("-amount, title +date -amount")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []SortField{
		{Field: SortAmount, Desc: true},
		{Field: SortTitle},
		{Field: SortDate},
		{Field: SortID},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if _, err := ParseSort(" , "); err == nil {
		t.Fatal("expected error for empty sort spec")
	}
}

func TestFilterMatches(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 999000000, time.UTC)
	f := Filter{Category: "Food", From: &from, To: &to}

	tests := []struct {
		name string
		e    Expense
		want bool
	}{
		{"inside", Expense{Category: "Food", Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}, true},
		{"lower bound", Expense{Category: "Food", Date: from}, true},
		{"upper bound", Expense{Category: "Food", Date: to}, true},
		{"other category", Expense{Category: "food", Date: from}, false},
		{"before", Expense{Category: "Food", Date: from.Add(-time.Millisecond)}, false},
		{"after", Expense{Category: "Food", Date: to.Add(time.Millisecond)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Matches(tt.e); got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompareExpenses(t *testing.T) {
	a := Expense{ID: "a", Amount: 5, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := Expense{ID: "b", Amount: 5, Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}

	byDateDesc := []SortField{{Field: SortDate, Desc: true}, {Field: SortID}}
	if CompareExpenses(a, b, byDateDesc) <= 0 {
		t.Error("newer record should sort first with -date")
	}
	byAmount := []SortField{{Field: SortAmount}, {Field: SortID}}
	if CompareExpenses(a, b, byAmount) >= 0 {
		t.Error("equal amounts should fall back to id order")
	}
}
