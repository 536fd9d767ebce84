package services

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage"
)

const publishTimeout = 5 * time.Second

// ExpenseService runs the expense operations: validation, persistence and
// change notification.
type ExpenseService struct {
	store     storage.ExpenseStore
	publisher EventPublisher
	logger    *applog.Logger
	queryOpts core.QueryOptions
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithPublisher sets where change events go. Without one, events are not
// published.
func WithPublisher(p EventPublisher) Option {
	return func(s *ExpenseService) { s.publisher = p }
}

func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.logger = l }
}

// WithQueryOptions overrides the page size bounds.
func WithQueryOptions(opts core.QueryOptions) Option {
	return func(s *ExpenseService) { s.queryOpts = opts }
}

func NewExpenseService(store storage.ExpenseStore, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store:     store,
		logger:    applog.New(applog.DefaultConfig()),
		queryOpts: core.DefaultQueryOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(applog.ComponentExpense)
	return s
}

// Create validates raw and stores a new record.
func (s *ExpenseService) Create(ctx context.Context, raw map[string]any) (core.Expense, error) {
	fields, err := core.ValidateExpense(raw)
	if err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.Create(ctx, fields)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		applog.NewFields().WithExpense(e).WithOperation(applog.OpCreate).ToSlice()...)
	s.publish(ctx, core.NewExpenseEvent(core.EventCreated, e))
	return e, nil
}

// List returns one page of records matching p plus the total match count.
func (s *ExpenseService) List(ctx context.Context, p core.ListParams) (core.Page, error) {
	q, err := core.BuildListQuery(p, s.queryOpts)
	if err != nil {
		return core.Page{}, err
	}

	total, err := s.store.Count(ctx, q.Filter)
	if err != nil {
		return core.Page{}, fmt.Errorf("count expenses: %w", err)
	}
	items := []core.Expense{}
	if q.Skip < total {
		items, err = s.store.FindMany(ctx, q)
		if err != nil {
			return core.Page{}, fmt.Errorf("list expenses: %w", err)
		}
	}

	s.logger.DebugContext(ctx, "Expenses listed",
		applog.NewFields().WithPage(q.Page, int(q.Limit), total).WithOperation(applog.OpList).ToSlice()...)
	return core.Page{Items: items, Total: total, Page: q.Page, Limit: int(q.Limit)}, nil
}

func (s *ExpenseService) Get(ctx context.Context, id string) (core.Expense, error) {
	e, ok, err := s.store.FindByID(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

// Update validates raw and replaces the record. Optional fields missing
// from raw keep their stored values.
func (s *ExpenseService) Update(ctx context.Context, id string, raw map[string]any) (core.Expense, error) {
	fields, err := core.ValidateExpense(raw)
	if err != nil {
		return core.Expense{}, err
	}
	e, ok, err := s.store.UpdateByID(ctx, id, fields)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}

	s.logger.InfoContext(ctx, "Expense updated",
		applog.NewFields().WithExpense(e).WithOperation(applog.OpUpdate).ToSlice()...)
	s.publish(ctx, core.NewExpenseEvent(core.EventUpdated, e))
	return e, nil
}

// Delete removes the record and returns it.
func (s *ExpenseService) Delete(ctx context.Context, id string) (core.Expense, error) {
	e, ok, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.NewFields().WithExpense(e).WithOperation(applog.OpDelete).ToSlice()...)
	s.publish(ctx, core.NewExpenseEvent(core.EventDeleted, e))
	return e, nil
}

// Ping reports whether the store is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish delivers ev to the configured publisher. The write already
// succeeded, so failures are logged and otherwise ignored.
func (s *ExpenseService) publish(ctx context.Context, ev core.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			applog.NewFields().
				WithExpenseID(ev.ID).
				WithOperation(applog.OpPublish).
				WithError(err).
				ToSlice()...)
	}
}

// Close releases the publisher. The store is owned by the caller.
func (s *ExpenseService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close publisher: %w", err)
	}
	return nil
}
