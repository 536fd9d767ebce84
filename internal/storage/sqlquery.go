package storage

import (
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// SQLDialect captures what differs between the SQL adapters when building
// list queries.
type SQLDialect struct {
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// TimeArg converts a time bound into the column's storage type.
	TimeArg func(t time.Time) any
}

// Question renders "?" placeholders (SQLite).
func Question(int) string { return "?" }

// Dollar renders "$n" placeholders (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// ExpenseColumns is the column list shared by every SELECT and RETURNING.
const ExpenseColumns = "id, title, amount, category, date, notes, created_at, updated_at"

var sortColumns = map[string]string{
	core.SortDate:      "date",
	core.SortAmount:    "amount",
	core.SortTitle:     "title",
	core.SortCategory:  "category",
	core.SortCreatedAt: "created_at",
	core.SortUpdatedAt: "updated_at",
	core.SortID:        "id",
}

// WhereClause renders f as a WHERE clause (empty when f selects everything)
// plus its bind arguments. Placeholders start at offset+1.
func (d SQLDialect) WhereClause(f core.Filter, offset int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return d.Placeholder(offset + len(args))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+next(f.Category))
	}
	if f.From != nil {
		conds = append(conds, "date >= "+next(d.TimeArg(*f.From)))
	}
	if f.To != nil {
		conds = append(conds, "date <= "+next(d.TimeArg(*f.To)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OrderClause renders the sort as an ORDER BY clause. Fields are taken from
// a fixed column map, never from user text.
func OrderClause(sort []core.SortField) string {
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		col, ok := sortColumns[s.Field]
		if !ok {
			continue
		}
		if s.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		parts = append(parts, col)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// SelectQuery builds the paged SELECT for q.
func (d SQLDialect) SelectQuery(table string, q core.ListQuery) (string, []any) {
	where, args := d.WhereClause(q.Filter, 0)
	var b strings.Builder
	b.WriteString("SELECT " + ExpenseColumns + " FROM " + table)
	b.WriteString(where)
	b.WriteString(OrderClause(q.Sort))
	args = append(args, q.Limit)
	b.WriteString(" LIMIT " + d.Placeholder(len(args)))
	args = append(args, q.Skip)
	b.WriteString(" OFFSET " + d.Placeholder(len(args)))
	return b.String(), args
}

// CountQuery builds the COUNT(*) for f.
func (d SQLDialect) CountQuery(table string, f core.Filter) (string, []any) {
	where, args := d.WhereClause(f, 0)
	return "SELECT COUNT(*) FROM " + table + where, args
}
