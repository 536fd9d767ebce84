package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const (
	msgValidation = "Validation Error"
	msgNotFound   = "Expense not found"
	msgInternal   = "Internal server error"
)

// errBadRequest carries a client error that is not a field violation,
// such as an unreadable body.
type errBadRequest struct {
	status  int
	message string
	err     error
}

func (e *errBadRequest) Error() string { return e.message }

func (e *errBadRequest) Unwrap() error { return e.err }

// respondError renders err as the failure envelope. It is the only place
// where errors are mapped to status codes.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	logger := applog.FromContext(r.Context())

	if ve, ok := core.AsValidationError(err); ok {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.NewFields().WithErrorType(applog.ErrorTypeValidation).WithError(err).ToSlice()...)
		respondFailure(w, http.StatusBadRequest, msgValidation, ve.Violations)
		return
	}

	if errors.Is(err, core.ErrNotFound) {
		respondFailure(w, http.StatusNotFound, msgNotFound, nil)
		return
	}

	var br *errBadRequest
	if errors.As(err, &br) {
		logger.WarnContext(r.Context(), "Bad request", applog.FieldError, err)
		respondFailure(w, br.status, br.message, nil)
		return
	}

	logger.ErrorContext(r.Context(), "Request failed",
		applog.NewFields().
			WithErrorType(applog.ErrorTypeInternal).
			WithError(err).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
			ToSlice()...)
	message := err.Error()
	if message == "" {
		message = msgInternal
	}
	respondFailure(w, http.StatusInternalServerError, message, nil)
}
