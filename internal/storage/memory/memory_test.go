package memory

import (
	"context"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func TestMemoryStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, now storage.Clock) storage.ExpenseStore {
		return NewWithClock(now)
	})
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	created, err := s.Create(ctx, core.ExpenseFields{Title: "Lunch", Amount: 12})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := s.FindMany(ctx, core.ListQuery{Limit: 10, Sort: []core.SortField{{Field: core.SortID}}})
	if err != nil {
		t.Fatalf("find many: %v", err)
	}
	items[0].Title = "mutated"

	got, ok, _ := s.FindByID(ctx, created.ID)
	if !ok || got.Title != "Lunch" {
		t.Fatalf("stored record changed through listing result: %+v", got)
	}
}
