package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeObject reads a JSON object body. Numbers are kept as json.Number
// so the validator sees them unrounded. An empty body is an empty object.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &errBadRequest{
				status:  http.StatusRequestEntityTooLarge,
				message: fmt.Sprintf("Request body exceeds %d bytes", maxBodyBytes),
				err:     err,
			}
		}
		return nil, &errBadRequest{status: http.StatusBadRequest, message: "Invalid JSON body", err: err}
	}
	if dec.More() {
		return nil, &errBadRequest{
			status:  http.StatusBadRequest,
			message: "Invalid JSON body",
			err:     errors.New("unexpected data after JSON object"),
		}
	}
	if raw == nil {
		// literal null
		return nil, &errBadRequest{
			status:  http.StatusBadRequest,
			message: "Invalid JSON body",
			err:     errors.New("body must be a JSON object"),
		}
	}
	return raw, nil
}

// parseListParams reads page, limit, category, startDate, endDate and sort
// from the query string. page and limit must be positive integers when
// present; everything else is checked by core.BuildListQuery.
func parseListParams(q url.Values) (core.ListParams, error) {
	var violations []core.FieldViolation
	p := core.ListParams{
		Category:  strings.TrimSpace(q.Get("category")),
		StartDate: strings.TrimSpace(q.Get("startDate")),
		EndDate:   strings.TrimSpace(q.Get("endDate")),
		Sort:      strings.TrimSpace(q.Get("sort")),
	}

	positive := func(name string) int {
		v := strings.TrimSpace(q.Get(name))
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			violations = append(violations, core.FieldViolation{
				Field:   name,
				Message: fmt.Sprintf("%q must be a number", name),
				Type:    "number.base",
			})
			return 0
		}
		if n < 1 {
			violations = append(violations, core.FieldViolation{
				Field:   name,
				Message: fmt.Sprintf("%q must be greater than or equal to 1", name),
				Type:    "number.min",
			})
			return 0
		}
		return n
	}
	p.Page = positive("page")
	p.Limit = positive("limit")

	if len(violations) > 0 {
		return core.ListParams{}, &core.ValidationError{Violations: violations}
	}
	return p, nil
}
