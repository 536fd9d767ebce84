// Package storage defines the persistence port for expense records and the
// helpers shared by its adapters.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// ExpenseStore persists expense records. FindByID, UpdateByID and DeleteByID
// report a missing record with ok == false and a nil error.
type ExpenseStore interface {
	Create(ctx context.Context, fields core.ExpenseFields) (core.Expense, error)
	FindMany(ctx context.Context, q core.ListQuery) ([]core.Expense, error)
	Count(ctx context.Context, f core.Filter) (int64, error)
	FindByID(ctx context.Context, id string) (e core.Expense, ok bool, err error)
	UpdateByID(ctx context.Context, id string, fields core.ExpenseFields) (e core.Expense, ok bool, err error)
	DeleteByID(ctx context.Context, id string) (e core.Expense, ok bool, err error)
	Ping(ctx context.Context) error
	Close() error
}

// Clock returns the current time. Adapters take one so tests can pin it.
type Clock func() time.Time

// NewRecord prepares a record for insertion: it runs the storage-side
// check, applies create defaults and assigns the id and timestamps.
func NewRecord(fields core.ExpenseFields, now time.Time) (core.Expense, error) {
	if err := fields.Check(); err != nil {
		return core.Expense{}, err
	}
	e := core.NewExpense(fields, now)
	e.ID = uuid.NewString()
	e.CreatedAt = core.NormalizeTime(now)
	e.UpdatedAt = e.CreatedAt
	return e, nil
}

// ApplyUpdate replaces the mutable fields of current and refreshes
// UpdatedAt. The updated timestamp never moves backwards.
func ApplyUpdate(current core.Expense, fields core.ExpenseFields, now time.Time) (core.Expense, error) {
	if err := fields.Check(); err != nil {
		return core.Expense{}, err
	}
	current.Apply(fields)
	ts := core.NormalizeTime(now)
	if !ts.After(current.UpdatedAt) {
		ts = current.UpdatedAt.Add(time.Millisecond)
	}
	current.UpdatedAt = ts
	return current, nil
}

// ValidID reports whether id has the shape of an id issued by NewRecord.
// Adapters treat malformed ids as absent records.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
