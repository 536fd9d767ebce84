package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// DefaultCategory is assigned on create when the payload has no category.
const DefaultCategory = "General"

type (
	// Expense is a stored expense record.
	Expense struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Amount    float64   `json:"amount"`
		Category  string    `json:"category"`
		Date      time.Time `json:"date"`
		Notes     string    `json:"notes"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	// ExpenseFields holds validated, normalized user input. Optional fields
	// are nil when the payload did not carry them.
	ExpenseFields struct {
		Title    string
		Amount   float64
		Category *string
		Date     *time.Time
		Notes    *string
	}
)

var (
	ErrEmptyTitle    = errors.New("title cannot be empty")
	ErrInvalidAmount = errors.New("amount must be a finite number >= 0")
	ErrZeroDate      = errors.New("date cannot be zero")
)

// NormalizeTime converts t to UTC with millisecond precision, the
// resolution shared by every storage backend.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// NewExpense builds a record from validated fields, applying the create
// defaults. ID and timestamps are left for the store to assign.
func NewExpense(f ExpenseFields, now time.Time) Expense {
	e := Expense{
		Title:    f.Title,
		Amount:   f.Amount,
		Category: DefaultCategory,
		Date:     NormalizeTime(now),
	}
	if f.Category != nil {
		e.Category = *f.Category
	}
	if f.Date != nil {
		e.Date = NormalizeTime(*f.Date)
	}
	if f.Notes != nil {
		e.Notes = *f.Notes
	}
	return e
}

// Apply replaces the mutable fields of e with f. Optional fields absent
// from f keep their stored value.
func (e *Expense) Apply(f ExpenseFields) {
	e.Title = f.Title
	e.Amount = f.Amount
	if f.Category != nil {
		e.Category = *f.Category
	}
	if f.Date != nil {
		e.Date = NormalizeTime(*f.Date)
	}
	if f.Notes != nil {
		e.Notes = *f.Notes
	}
}

// Check is the storage-side type check run before every write. The full
// rule set lives in ValidateExpense.
func (f ExpenseFields) Check() error {
	var violations []FieldViolation
	if strings.TrimSpace(f.Title) == "" {
		violations = append(violations, FieldViolation{Field: "title", Message: ErrEmptyTitle.Error(), Type: "string.empty"})
	}
	if math.IsNaN(f.Amount) || math.IsInf(f.Amount, 0) || f.Amount < 0 {
		violations = append(violations, FieldViolation{Field: "amount", Message: ErrInvalidAmount.Error(), Type: "number.min"})
	}
	if f.Category != nil && *f.Category == "" {
		violations = append(violations, FieldViolation{Field: "category", Message: `"category" is not allowed to be empty`, Type: "string.empty"})
	}
	if f.Date != nil && f.Date.IsZero() {
		violations = append(violations, FieldViolation{Field: "date", Message: ErrZeroDate.Error(), Type: "date.base"})
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

// Validate checks the invariants of a record about to be persisted.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return &ValidationError{Violations: []FieldViolation{{Field: "date", Message: ErrZeroDate.Error(), Type: "date.base"}}}
	}
	date := e.Date
	category := e.Category
	return ExpenseFields{Title: e.Title, Amount: e.Amount, Category: &category, Date: &date}.Check()
}
