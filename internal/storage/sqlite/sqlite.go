// Package sqlite stores expense records in a local SQLite file through the
// pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const (
	driverName = "sqlite"
	table      = "expenses"
)

var dialect = storage.SQLDialect{
	Placeholder: storage.Question,
	TimeArg:     func(t time.Time) any { return t.UnixMilli() },
}

type Repository struct {
	db  *sql.DB
	now storage.Clock
}

var _ storage.ExpenseStore = (*Repository)(nil)

// New opens (creating if needed) the database at dbPath and applies
// migrations.
func New(dbPath string) (*Repository, error) {
	return NewWithClock(dbPath, time.Now)
}

func NewWithClock(dbPath string, now storage.Clock) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db, now: now}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, fields core.ExpenseFields) (core.Expense, error) {
	e, err := storage.NewRecord(fields, r.now())
	if err != nil {
		return core.Expense{}, err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+storage.ExpenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Amount, e.Category, e.Date.UnixMilli(), e.Notes,
		e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (r *Repository) FindMany(ctx context.Context, q core.ListQuery) ([]core.Expense, error) {
	query, args := dialect.SelectQuery(table, q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	items := make([]core.Expense, 0, q.Limit)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return items, nil
}

func (r *Repository) Count(ctx context.Context, f core.Filter) (int64, error) {
	query, args := dialect.CountQuery(table, f)
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+storage.ExpenseColumns+` FROM expenses WHERE id = ?`, id)
	return oneRow(row, "get expense")
}

// UpdateByID replaces the record in a single statement. NULL optional
// arguments keep the stored column; updated_at always moves forward.
func (r *Repository) UpdateByID(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	if err := fields.Check(); err != nil {
		return core.Expense{}, false, err
	}

	var category, date, notes any
	if fields.Category != nil {
		category = *fields.Category
	}
	if fields.Date != nil {
		date = core.NormalizeTime(*fields.Date).UnixMilli()
	}
	if fields.Notes != nil {
		notes = *fields.Notes
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE expenses SET
			title = ?,
			amount = ?,
			category = COALESCE(?, category),
			date = COALESCE(?, date),
			notes = COALESCE(?, notes),
			updated_at = MAX(?, updated_at + 1)
		WHERE id = ?
		RETURNING `+storage.ExpenseColumns,
		fields.Title, fields.Amount, category, date, notes,
		core.NormalizeTime(r.now()).UnixMilli(), id,
	)
	return oneRow(row, "update expense")
}

func (r *Repository) DeleteByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	row := r.db.QueryRowContext(ctx, `DELETE FROM expenses WHERE id = ? RETURNING `+storage.ExpenseColumns, id)
	return oneRow(row, "delete expense")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e                        core.Expense
		date, created, updatedAt int64
	)
	if err := s.Scan(&e.ID, &e.Title, &e.Amount, &e.Category, &date, &e.Notes, &created, &updatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Date = time.UnixMilli(date).UTC()
	e.CreatedAt = time.UnixMilli(created).UTC()
	e.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return e, nil
}

func oneRow(row *sql.Row, op string) (core.Expense, bool, error) {
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return e, true, nil
}
