package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// knownFields lists the payload keys accepted by ValidateExpense.
var knownFields = map[string]struct{}{
	"title":    {},
	"amount":   {},
	"category": {},
	"date":     {},
	"notes":    {},
}

// ValidateExpense checks an untyped payload against the expense schema and
// returns the normalized fields. Every violation is reported, not just the
// first one. The same rules apply to create and update.
func ValidateExpense(raw map[string]any) (ExpenseFields, error) {
	var (
		out  ExpenseFields
		errs violations
	)

	if v, ok := raw["title"]; !ok {
		errs.add("title", "any.required", `"title" is required`)
	} else if s, ok := v.(string); !ok {
		errs.add("title", "string.base", `"title" must be a string`)
	} else if s = strings.TrimSpace(s); s == "" {
		errs.add("title", "string.empty", `"title" is not allowed to be empty`)
	} else {
		out.Title = s
	}

	if v, ok := raw["amount"]; !ok {
		errs.add("amount", "any.required", `"amount" is required`)
	} else if n, ok := toNumber(v); !ok {
		errs.add("amount", "number.base", `"amount" must be a number`)
	} else if math.IsInf(n, 0) || math.IsNaN(n) {
		errs.add("amount", "number.infinity", `"amount" cannot be infinity`)
	} else if n < 0 {
		errs.add("amount", "number.min", `"amount" must be greater than or equal to 0`)
	} else {
		out.Amount = n
	}

	if v, ok := raw["category"]; ok {
		if s, ok := v.(string); !ok {
			errs.add("category", "string.base", `"category" must be a string`)
		} else if s == "" {
			errs.add("category", "string.empty", `"category" is not allowed to be empty`)
		} else {
			out.Category = &s
		}
	}

	if v, ok := raw["date"]; ok {
		if t, ok := toDate(v); !ok {
			errs.add("date", "date.base", `"date" must be a valid date`)
		} else {
			out.Date = &t
		}
	}

	if v, ok := raw["notes"]; ok {
		switch s := v.(type) {
		case nil:
			empty := ""
			out.Notes = &empty
		case string:
			out.Notes = &s
		default:
			errs.add("notes", "string.base", `"notes" must be a string`)
		}
	}

	var unknown []string
	for k := range raw {
		if _, ok := knownFields[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		errs.add(k, "object.unknown", fmt.Sprintf("%q is not allowed", k))
	}

	if err := errs.err(); err != nil {
		return ExpenseFields{}, err
	}
	return out, nil
}

// ParseDate accepts RFC 3339 timestamps, local date-times, plain dates and
// epoch milliseconds. dateOnly reports whether s carried no time of day.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("empty date")
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if !millisInRange(float64(ms)) {
			return time.Time{}, false, fmt.Errorf("date %q out of range", s)
		}
		return time.UnixMilli(ms).UTC(), false, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			if t.Year() < minDateYear || t.Year() > maxDateYear {
				return time.Time{}, false, fmt.Errorf("date %q out of range", s)
			}
			return t, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q", s)
}

// Dates must fit a four-digit year to be representable as RFC 3339.
const (
	minDateYear = 0
	maxDateYear = 9999
)

var (
	minDateMillis = time.Date(minDateYear, time.January, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	maxDateMillis = time.Date(maxDateYear, time.December, 31, 23, 59, 59, 999_000_000, time.UTC).UnixMilli()
)

func millisInRange(ms float64) bool {
	if math.IsInf(ms, 0) || math.IsNaN(ms) {
		return false
	}
	return ms >= float64(minDateMillis) && ms <= float64(maxDateMillis)
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero() && d.Year() >= minDateYear && d.Year() <= maxDateYear
	case string:
		t, _, err := ParseDate(d)
		return t, err == nil
	case json.Number, float64, int, int64:
		ms, ok := toNumber(d)
		if !ok || !millisInRange(ms) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	default:
		return time.Time{}, false
	}
}
