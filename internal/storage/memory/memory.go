// Package memory is an in-process ExpenseStore used for tests and local
// runs. Contents are lost when the process exits.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type Store struct {
	mu    sync.RWMutex
	items map[string]core.Expense
	now   storage.Clock
}

var _ storage.ExpenseStore = (*Store)(nil)

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns a store that stamps records using now.
func NewWithClock(now storage.Clock) *Store {
	return &Store{items: make(map[string]core.Expense), now: now}
}

// Create stores a new record and returns it with its id and timestamps.
func (s *Store) Create(_ context.Context, fields core.ExpenseFields) (core.Expense, error) {
	e, err := storage.NewRecord(fields, s.now())
	if err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) FindMany(_ context.Context, q core.ListQuery) ([]core.Expense, error) {
	s.mu.RLock()
	matched := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		if q.Filter.Matches(e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b core.Expense) int {
		return core.CompareExpenses(a, b, q.Sort)
	})

	if q.Skip >= int64(len(matched)) {
		return []core.Expense{}, nil
	}
	end := int64(len(matched))
	if q.Limit > 0 && q.Skip+q.Limit < end {
		end = q.Skip + q.Limit
	}
	return matched[q.Skip:end], nil
}

func (s *Store) Count(_ context.Context, f core.Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, e := range s.items {
		if f.Matches(e) {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindByID(_ context.Context, id string) (core.Expense, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	return e, ok, nil
}

func (s *Store) UpdateByID(_ context.Context, id string, fields core.ExpenseFields) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[id]
	if !ok {
		return core.Expense{}, false, nil
	}
	updated, err := storage.ApplyUpdate(current, fields, s.now())
	if err != nil {
		return core.Expense{}, false, err
	}
	s.items[id] = updated
	return updated, true, nil
}

func (s *Store) DeleteByID(_ context.Context, id string) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if ok {
		delete(s.items, id)
	}
	return e, ok, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
