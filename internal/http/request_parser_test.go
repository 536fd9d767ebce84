package http

import (
	"net/url"
	"testing"

	"expensetracker/internal/core"
)

func TestParseListParams(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      core.ListParams
		wantError []string
	}{
		{
			name:  "empty query keeps defaults",
			query: "",
			want:  core.ListParams{},
		},
		{
			name:  "all parameters",
			query: "page=3&limit=15&category=%20Food%20&startDate=2024-01-01&endDate=2024-01-31&sort=-amount,title",
			want: core.ListParams{
				Page: 3, Limit: 15, Category: "Food",
				StartDate: "2024-01-01", EndDate: "2024-01-31", Sort: "-amount,title",
			},
		},
		{
			name:      "non numeric page and limit",
			query:     "page=two&limit=1.5",
			wantError: []string{"page", "limit"},
		},
		{
			name:      "zero limit",
			query:     "limit=0",
			wantError: []string{"limit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			got, err := parseListParams(q)
			if len(tt.wantError) > 0 {
				ve, ok := core.AsValidationError(err)
				if !ok {
					t.Fatalf("expected validation error, got %v", err)
				}
				for _, field := range tt.wantError {
					if !ve.Has(field) {
						t.Errorf("missing violation for %q: %+v", field, ve.Violations)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNewMetaPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		pages int64
	}{
		{0, 20, 0},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		m := newMeta(core.Page{Total: tt.total, Limit: tt.limit, Page: 1})
		if m.Pages != tt.pages {
			t.Errorf("pages(total=%d, limit=%d) = %d, want %d", tt.total, tt.limit, m.Pages, tt.pages)
		}
	}
}
