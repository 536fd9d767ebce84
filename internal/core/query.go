package core

import (
	"cmp"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	DefaultPage       = 1
	DefaultPageLimit  = 20
	DefaultMaxLimit   = 100
	DefaultSortString = "-date"
)

// Sortable record fields.
const (
	SortDate      = "date"
	SortAmount    = "amount"
	SortTitle     = "title"
	SortCategory  = "category"
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortID        = "id"
)

var sortableFields = map[string]struct{}{
	SortDate:      {},
	SortAmount:    {},
	SortTitle:     {},
	SortCategory:  {},
	SortCreatedAt: {},
	SortUpdatedAt: {},
}

type (
	// ListParams are the list request parameters as received. Zero values
	// select the defaults.
	ListParams struct {
		Page      int
		Limit     int
		Category  string
		StartDate string
		EndDate   string
		Sort      string
	}

	// QueryOptions bounds the page size.
	QueryOptions struct {
		DefaultLimit int
		MaxLimit     int
	}

	// Filter selects records for listing and counting. From and To are
	// inclusive bounds on the record date.
	Filter struct {
		Category string
		From     *time.Time
		To       *time.Time
	}

	SortField struct {
		Field string
		Desc  bool
	}

	// ListQuery is the store-level translation of ListParams.
	ListQuery struct {
		Filter Filter
		Sort   []SortField
		Skip   int64
		Limit  int64
		Page   int
	}

	// Page is one window of a filtered listing.
	Page struct {
		Items []Expense
		Total int64
		Page  int
		Limit int
	}
)

// DefaultQueryOptions returns the stock page size limits.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{DefaultLimit: DefaultPageLimit, MaxLimit: DefaultMaxLimit}
}

// BuildListQuery validates p and translates it into a filter, a sort order
// and a skip/limit window. Limits above opts.MaxLimit are clamped.
func BuildListQuery(p ListParams, opts QueryOptions) (ListQuery, error) {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultPageLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = DefaultMaxLimit
	}

	var errs violations
	q := ListQuery{Page: p.Page}

	if q.Page == 0 {
		q.Page = DefaultPage
	} else if q.Page < 0 {
		errs.add("page", "number.min", `"page" must be greater than or equal to 1`)
	}

	limit := p.Limit
	switch {
	case limit == 0:
		limit = opts.DefaultLimit
	case limit < 0:
		errs.add("limit", "number.min", `"limit" must be greater than or equal to 1`)
	case limit > opts.MaxLimit:
		limit = opts.MaxLimit
	}

	q.Filter.Category = p.Category

	if p.StartDate != "" {
		t, _, err := ParseDate(p.StartDate)
		if err != nil {
			errs.add("startDate", "date.base", `"startDate" must be a valid date`)
		} else {
			t = NormalizeTime(t)
			q.Filter.From = &t
		}
	}
	if p.EndDate != "" {
		t, dateOnly, err := ParseDate(p.EndDate)
		if err != nil {
			errs.add("endDate", "date.base", `"endDate" must be a valid date`)
		} else {
			if dateOnly {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			t = NormalizeTime(t)
			q.Filter.To = &t
		}
	}
	if q.Filter.From != nil && q.Filter.To != nil && q.Filter.From.After(*q.Filter.To) {
		errs.add("endDate", "date.min", `"endDate" must be greater than or equal to "startDate"`)
	}

	sortSpec := p.Sort
	if strings.TrimSpace(sortSpec) == "" {
		sortSpec = DefaultSortString
	}
	sortFields, err := ParseSort(sortSpec)
	if err != nil {
		errs.add("sort", "any.only", err.Error())
	}
	q.Sort = sortFields

	if err := errs.err(); err != nil {
		return ListQuery{}, err
	}

	q.Limit = int64(limit)
	// A window beyond the int64 range is past the end of any collection.
	if pages := int64(q.Page - 1); pages > math.MaxInt64/q.Limit {
		q.Skip = math.MaxInt64
	} else {
		q.Skip = pages * q.Limit
	}
	return q, nil
}

// ParseSort reads a sort spec such as "-date,amount" or "-date amount".
// A leading '-' selects descending order. The id field is appended as a
// final tiebreaker so that paging is stable.
func ParseSort(spec string) ([]SortField, error) {
	tokens := strings.FieldsFunc(spec, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]SortField, 0, len(tokens)+1)
	seen := map[string]bool{}
	for _, tok := range tokens {
		f := SortField{Field: tok}
		if strings.HasPrefix(tok, "-") {
			f = SortField{Field: tok[1:], Desc: true}
		} else if strings.HasPrefix(tok, "+") {
			f.Field = tok[1:]
		}
		if _, ok := sortableFields[f.Field]; !ok {
			return nil, fmt.Errorf(`"sort" field %q is not sortable`, f.Field)
		}
		if seen[f.Field] {
			continue
		}
		seen[f.Field] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf(`"sort" must name at least one field`)
	}
	return append(out, SortField{Field: SortID}), nil
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	return true
}

// CompareExpenses orders a and b according to sort.
func CompareExpenses(a, b Expense, sort []SortField) int {
	for _, s := range sort {
		var c int
		switch s.Field {
		case SortDate:
			c = a.Date.Compare(b.Date)
		case SortAmount:
			c = cmp.Compare(a.Amount, b.Amount)
		case SortTitle:
			c = cmp.Compare(a.Title, b.Title)
		case SortCategory:
			c = cmp.Compare(a.Category, b.Category)
		case SortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		case SortUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		case SortID:
			c = cmp.Compare(a.ID, b.ID)
		}
		if s.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
