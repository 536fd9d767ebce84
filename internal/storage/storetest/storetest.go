// Package storetest holds the behaviour every storage.ExpenseStore adapter
// must share. Adapter packages call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Factory opens an empty store stamped by now. The store is closed by Run.
type Factory func(t *testing.T, now storage.Clock) storage.ExpenseStore

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	open := func(t *testing.T) (storage.ExpenseStore, *clock) {
		t.Helper()
		c := &clock{now: base}
		s := newStore(t, c.Now)
		t.Cleanup(func() { _ = s.Close() })
		return s, c
	}

	t.Run("CreateAppliesDefaults", func(t *testing.T) {
		s, _ := open(t)
		e, err := s.Create(context.Background(), core.ExpenseFields{Title: "Coffee", Amount: 2.5})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := uuid.Parse(e.ID); err != nil {
			t.Errorf("id %q is not a uuid", e.ID)
		}
		if e.Category != core.DefaultCategory {
			t.Errorf("category = %q, want %q", e.Category, core.DefaultCategory)
		}
		if !e.Date.Equal(base) || !e.CreatedAt.Equal(base) || !e.UpdatedAt.Equal(base) {
			t.Errorf("timestamps = date %v created %v updated %v, want %v", e.Date, e.CreatedAt, e.UpdatedAt, base)
		}
		if e.Notes != "" {
			t.Errorf("notes = %q", e.Notes)
		}
	})

	t.Run("CreateRejectsInvalidFields", func(t *testing.T) {
		s, _ := open(t)
		_, err := s.Create(context.Background(), core.ExpenseFields{Title: "  ", Amount: -1})
		ve, ok := core.AsValidationError(err)
		if !ok {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if !ve.Has("title") || !ve.Has("amount") {
			t.Errorf("violations = %+v", ve.Violations)
		}
	})

	t.Run("FindByIDRoundTrip", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		created, err := s.Create(ctx, core.ExpenseFields{
			Title:    "Groceries",
			Amount:   42.1,
			Category: ptr("Food"),
			Date:     ptr(time.Date(2024, 1, 15, 18, 30, 0, 123456789, time.FixedZone("CET", 3600))),
			Notes:    ptr("weekly"),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, ok, err := s.FindByID(ctx, created.ID)
		if err != nil || !ok {
			t.Fatalf("find: ok=%v err=%v", ok, err)
		}
		assertSame(t, got, created)
		wantDate := time.Date(2024, 1, 15, 17, 30, 0, 123000000, time.UTC)
		if !got.Date.Equal(wantDate) {
			t.Errorf("date = %v, want %v", got.Date, wantDate)
		}
	})

	t.Run("MissingAndMalformedIDs", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		for _, id := range []string{uuid.NewString(), "not-an-id", ""} {
			if _, ok, err := s.FindByID(ctx, id); ok || err != nil {
				t.Errorf("FindByID(%q) ok=%v err=%v", id, ok, err)
			}
			if _, ok, err := s.UpdateByID(ctx, id, core.ExpenseFields{Title: "x", Amount: 1}); ok || err != nil {
				t.Errorf("UpdateByID(%q) ok=%v err=%v", id, ok, err)
			}
			if _, ok, err := s.DeleteByID(ctx, id); ok || err != nil {
				t.Errorf("DeleteByID(%q) ok=%v err=%v", id, ok, err)
			}
		}
	})

	t.Run("UpdateKeepsAbsentOptionalFields", func(t *testing.T) {
		s, c := open(t)
		ctx := context.Background()
		created, err := s.Create(ctx, core.ExpenseFields{
			Title: "Taxi", Amount: 20, Category: ptr("Transport"), Date: ptr(day(5)), Notes: ptr("airport"),
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		c.Advance(time.Minute)

		updated, ok, err := s.UpdateByID(ctx, created.ID, core.ExpenseFields{Title: "Cab", Amount: 25})
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}
		if updated.Title != "Cab" || updated.Amount != 25 {
			t.Errorf("required fields not replaced: %+v", updated)
		}
		if updated.Category != "Transport" || !updated.Date.Equal(day(5)) || updated.Notes != "airport" {
			t.Errorf("optional fields not kept: %+v", updated)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("createdAt changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
		}
		if !updated.UpdatedAt.Equal(base.Add(time.Minute)) {
			t.Errorf("updatedAt = %v, want %v", updated.UpdatedAt, base.Add(time.Minute))
		}

		got, _, _ := s.FindByID(ctx, created.ID)
		assertSame(t, got, updated)
	})

	t.Run("UpdateAdvancesUpdatedAtWithoutClockMovement", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		created, err := s.Create(ctx, core.ExpenseFields{Title: "a", Amount: 1})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		updated, _, err := s.UpdateByID(ctx, created.ID, core.ExpenseFields{Title: "b", Amount: 1})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Errorf("updatedAt %v should be after %v", updated.UpdatedAt, created.UpdatedAt)
		}
	})

	t.Run("UpdateClearsNotes", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		created, _ := s.Create(ctx, core.ExpenseFields{Title: "a", Amount: 1, Notes: ptr("remove me")})
		updated, ok, err := s.UpdateByID(ctx, created.ID, core.ExpenseFields{Title: "a", Amount: 1, Notes: ptr("")})
		if err != nil || !ok {
			t.Fatalf("update: ok=%v err=%v", ok, err)
		}
		if updated.Notes != "" {
			t.Errorf("notes = %q, want empty", updated.Notes)
		}
	})

	t.Run("UpdateRejectsInvalidFields", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		created, _ := s.Create(ctx, core.ExpenseFields{Title: "a", Amount: 1})
		_, _, err := s.UpdateByID(ctx, created.ID, core.ExpenseFields{Title: "", Amount: 1})
		if _, ok := core.AsValidationError(err); !ok {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		got, _, _ := s.FindByID(ctx, created.ID)
		if got.Title != "a" {
			t.Errorf("record changed by rejected update: %+v", got)
		}
	})

	t.Run("DeleteReturnsRemovedRecord", func(t *testing.T) {
		s, _ := open(t)
		ctx := context.Background()
		created, _ := s.Create(ctx, core.ExpenseFields{Title: "a", Amount: 1})
		removed, ok, err := s.DeleteByID(ctx, created.ID)
		if err != nil || !ok {
			t.Fatalf("delete: ok=%v err=%v", ok, err)
		}
		assertSame(t, removed, created)
		if _, ok, _ := s.DeleteByID(ctx, created.ID); ok {
			t.Error("second delete should report absent")
		}
		if _, ok, _ := s.FindByID(ctx, created.ID); ok {
			t.Error("deleted record still found")
		}
	})

	t.Run("ListFiltersSortsAndPages", func(t *testing.T) {
		s, c := open(t)
		ctx := context.Background()
		seed := []struct {
			title    string
			amount   float64
			category string
			date     time.Time
		}{
			{"rent", 900, "Housing", day(1)},
			{"bread", 3, "Food", day(2)},
			{"pizza", 15, "Food", day(10)},
			{"bus", 2, "Transport", day(10)},
			{"cheese", 8, "Food", day(20)},
			{"fruit", 6, "Food", day(31)},
		}
		ids := make(map[string]string)
		for _, r := range seed {
			e, err := s.Create(ctx, core.ExpenseFields{Title: r.title, Amount: r.amount, Category: ptr(r.category), Date: ptr(r.date)})
			if err != nil {
				t.Fatalf("seed %s: %v", r.title, err)
			}
			ids[r.title] = e.ID
			c.Advance(time.Second)
		}

		all, err := s.FindMany(ctx, mustQuery(t, core.ListParams{}))
		if err != nil {
			t.Fatalf("find all: %v", err)
		}
		if len(all) != len(seed) {
			t.Fatalf("len = %d, want %d", len(all), len(seed))
		}
		for i := 1; i < len(all); i++ {
			if all[i-1].Date.Before(all[i].Date) {
				t.Fatalf("default order is not newest first: %v before %v", all[i-1].Date, all[i].Date)
			}
		}
		// Equal dates fall back to ascending id.
		tied := []string{ids["pizza"], ids["bus"]}
		if tied[0] > tied[1] {
			tied[0], tied[1] = tied[1], tied[0]
		}
		if all[2].ID != tied[0] || all[3].ID != tied[1] {
			t.Errorf("tie order = %s,%s want %s,%s", all[2].ID, all[3].ID, tied[0], tied[1])
		}

		q := mustQuery(t, core.ListParams{Category: "Food", StartDate: "2024-01-02", EndDate: "2024-01-20", Sort: "amount"})
		food, err := s.FindMany(ctx, q)
		if err != nil {
			t.Fatalf("find food: %v", err)
		}
		assertTitles(t, food, "bread", "cheese", "pizza")
		n, err := s.Count(ctx, q.Filter)
		if err != nil || n != 3 {
			t.Errorf("count = %d err=%v, want 3", n, err)
		}

		page2, err := s.FindMany(ctx, mustQuery(t, core.ListParams{Page: 2, Limit: 2, Sort: "-amount"}))
		if err != nil {
			t.Fatalf("page 2: %v", err)
		}
		assertTitles(t, page2, "cheese", "fruit")

		beyond, err := s.FindMany(ctx, mustQuery(t, core.ListParams{Page: 9, Limit: 5}))
		if err != nil || len(beyond) != 0 {
			t.Errorf("page past end = %d items err=%v", len(beyond), err)
		}

		total, err := s.Count(ctx, core.Filter{})
		if err != nil || total != int64(len(seed)) {
			t.Errorf("total = %d err=%v", total, err)
		}
		none, err := s.Count(ctx, core.Filter{Category: "food"})
		if err != nil || none != 0 {
			t.Errorf("category match must be exact, got %d err=%v", none, err)
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s, _ := open(t)
		if err := s.Ping(context.Background()); err != nil {
			t.Fatalf("ping: %v", err)
		}
	})
}

func mustQuery(t *testing.T, p core.ListParams) core.ListQuery {
	t.Helper()
	q, err := core.BuildListQuery(p, core.DefaultQueryOptions())
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func assertTitles(t *testing.T, got []core.Expense, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %v", len(got), want)
	}
	for i, w := range want {
		if got[i].Title != w {
			t.Errorf("item %d = %q, want %q", i, got[i].Title, w)
		}
	}
}

func assertSame(t *testing.T, got, want core.Expense) {
	t.Helper()
	if got.ID != want.ID || got.Title != want.Title || got.Amount != want.Amount ||
		got.Category != want.Category || got.Notes != want.Notes {
		t.Errorf("record = %+v, want %+v", got, want)
	}
	if !got.Date.Equal(want.Date) || !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps = %v/%v/%v, want %v/%v/%v",
			got.Date, got.CreatedAt, got.UpdatedAt, want.Date, want.CreatedAt, want.UpdatedAt)
	}
}
