// Package postgres stores expense records in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

const table = "expenses"

var dialect = storage.SQLDialect{
	Placeholder: storage.Dollar,
	TimeArg:     func(t time.Time) any { return t },
}

type Store struct {
	pool *pgxpool.Pool
	now  storage.Clock
}

var _ storage.ExpenseStore = (*Store)(nil)

// New connects to connStr, verifies the connection and applies migrations.
func New(ctx context.Context, connStr string) (*Store, error) {
	return NewWithClock(ctx, connStr, time.Now)
}

func NewWithClock(ctx context.Context, connStr string, now storage.Clock) (*Store, error) {
	if err := RunMigrations(connStr); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool, now: now}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Create(ctx context.Context, fields core.ExpenseFields) (core.Expense, error) {
	e, err := storage.NewRecord(fields, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO expenses (`+storage.ExpenseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.Title, e.Amount, e.Category, e.Date, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

func (s *Store) FindMany(ctx context.Context, q core.ListQuery) ([]core.Expense, error) {
	query, args := dialect.SelectQuery(table, q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	items := make([]core.Expense, 0, q.Limit)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) Count(ctx context.Context, f core.Filter) (int64, error) {
	query, args := dialect.CountQuery(table, f)
	var n int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	row := s.pool.QueryRow(ctx, `SELECT `+storage.ExpenseColumns+` FROM expenses WHERE id = $1`, id)
	return oneRow(row, "get expense")
}

// UpdateByID replaces the record in one statement. NULL optional arguments
// keep the stored column.
func (s *Store) UpdateByID(ctx context.Context, id string, fields core.ExpenseFields) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	if err := fields.Check(); err != nil {
		return core.Expense{}, false, err
	}

	var date *time.Time
	if fields.Date != nil {
		d := core.NormalizeTime(*fields.Date)
		date = &d
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE expenses SET
			title = $1,
			amount = $2,
			category = COALESCE($3, category),
			date = COALESCE($4, date),
			notes = COALESCE($5, notes),
			updated_at = GREATEST($6, updated_at + interval '1 millisecond')
		WHERE id = $7
		RETURNING `+storage.ExpenseColumns,
		fields.Title, fields.Amount, fields.Category, date, fields.Notes, core.NormalizeTime(s.now()), id,
	)
	return oneRow(row, "update expense")
}

func (s *Store) DeleteByID(ctx context.Context, id string) (core.Expense, bool, error) {
	if !storage.ValidID(id) {
		return core.Expense{}, false, nil
	}
	row := s.pool.QueryRow(ctx, `DELETE FROM expenses WHERE id = $1 RETURNING `+storage.ExpenseColumns, id)
	return oneRow(row, "delete expense")
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var e core.Expense
	if err := row.Scan(&e.ID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.Notes, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	e.Date = core.NormalizeTime(e.Date)
	e.CreatedAt = core.NormalizeTime(e.CreatedAt)
	e.UpdatedAt = core.NormalizeTime(e.UpdatedAt)
	return e, nil
}

func oneRow(row pgx.Row, op string) (core.Expense, bool, error) {
	e, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("failed to %s: %w", op, err)
	}
	return e, true, nil
}
