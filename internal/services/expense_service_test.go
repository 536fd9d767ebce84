package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.ExpenseEvent
	err    error
	closed bool
}

func (p *recordingPublisher) Publish(ctx context.Context, ev core.ExpenseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return nil
}

func (p *recordingPublisher) types() []core.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestService(pub EventPublisher) *ExpenseService {
	opts := []Option{WithLogger(applog.Discard())}
	if pub != nil {
		opts = append(opts, WithPublisher(pub))
	}
	return NewExpenseService(memory.New(), opts...)
}

func TestExpenseServiceLifecycle(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, map[string]any{"title": "Books", "amount": 30, "category": "Education"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil || got.Title != "Books" {
		t.Fatalf("get: %+v err=%v", got, err)
	}

	updated, err := svc.Update(ctx, created.ID, map[string]any{"title": "Textbooks", "amount": 45})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Textbooks" || updated.Category != "Education" {
		t.Errorf("update result = %+v", updated)
	}

	removed, err := svc.Delete(ctx, created.ID)
	if err != nil || removed.ID != created.ID {
		t.Fatalf("delete: %+v err=%v", removed, err)
	}
	if _, err := svc.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}

	want := []core.EventType{core.EventCreated, core.EventUpdated, core.EventDeleted}
	got2 := pub.types()
	if len(got2) != len(want) {
		t.Fatalf("events = %v, want %v", got2, want)
	}
	for i := range want {
		if got2[i] != want[i] {
			t.Errorf("event %d = %s, want %s", i, got2[i], want[i])
		}
	}
	if pub.events[2].Expense.Title != "Textbooks" {
		t.Errorf("delete event should carry the removed record, got %+v", pub.events[2].Expense)
	}
}

func TestExpenseServiceValidation(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)
	ctx := context.Background()

	_, err := svc.Create(ctx, map[string]any{"amount": -1})
	ve, ok := core.AsValidationError(err)
	if !ok || !ve.Has("title") || !ve.Has("amount") {
		t.Fatalf("create error = %v", err)
	}

	created, _ := svc.Create(ctx, map[string]any{"title": "a", "amount": 1})
	if _, err := svc.Update(ctx, created.ID, map[string]any{"title": "b"}); err == nil {
		t.Error("update without amount should fail validation")
	}
	if len(pub.types()) != 1 {
		t.Errorf("rejected writes must not publish, got %v", pub.types())
	}
}

func TestExpenseServiceNotFound(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	for _, id := range []string{"0b6f7e2e-3c1a-4c55-9a53-2f0d0a9a1a11", "garbage"} {
		if _, err := svc.Get(ctx, id); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Get(%q) = %v", id, err)
		}
		if _, err := svc.Update(ctx, id, map[string]any{"title": "a", "amount": 1}); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Update(%q) = %v", id, err)
		}
		if _, err := svc.Delete(ctx, id); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Delete(%q) = %v", id, err)
		}
	}
}

func TestExpenseServiceUpdateValidatesBeforeLookup(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Update(context.Background(), "missing", map[string]any{})
	if _, ok := core.AsValidationError(err); !ok {
		t.Fatalf("expected validation error first, got %v", err)
	}
}

func TestExpenseServiceList(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	for i, c := range []string{"Food", "Food", "Rent", "Food"} {
		date := []string{"2024-01-01", "2024-01-05", "2024-01-10", "2024-02-01"}[i]
		if _, err := svc.Create(ctx, map[string]any{"title": c, "amount": i, "category": c, "date": date}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := svc.List(ctx, core.ListParams{Category: "Food", EndDate: "2024-01-31", Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 1 || page.Page != 1 || page.Limit != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].Date.Day() != 5 {
		t.Errorf("expected newest first, got %v", page.Items[0].Date)
	}

	empty, err := svc.List(ctx, core.ListParams{Page: 10})
	if err != nil {
		t.Fatalf("list past end: %v", err)
	}
	if empty.Total != 4 || empty.Items == nil || len(empty.Items) != 0 {
		t.Errorf("page past end = %+v", empty)
	}

	if _, err := svc.List(ctx, core.ListParams{Sort: "secret"}); err == nil {
		t.Error("unknown sort field should be rejected")
	}
}

func TestExpenseServiceListClampsLimit(t *testing.T) {
	svc := NewExpenseService(memory.New(),
		WithLogger(applog.Discard()),
		WithQueryOptions(core.QueryOptions{DefaultLimit: 2, MaxLimit: 3}))

	page, err := svc.List(context.Background(), core.ListParams{Limit: 50})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != 3 {
		t.Errorf("limit = %d, want 3", page.Limit)
	}
}

func TestExpenseServicePublishFailureIsNotFatal(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(pub)

	e, err := svc.Create(context.Background(), map[string]any{"title": "a", "amount": 1})
	if err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if _, err := svc.Get(context.Background(), e.ID); err != nil {
		t.Errorf("record should be stored: %v", err)
	}
}

func TestExpenseServicePublishSurvivesCancelledRequest(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)

	ctx, cancel := context.WithCancel(context.Background())
	e, err := svc.Create(ctx, map[string]any{"title": "a", "amount": 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	cancel()
	if _, err := svc.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := len(pub.types()); n != 2 {
		t.Errorf("published %d events, want 2", n)
	}
}

func TestExpenseServiceClose(t *testing.T) {
	if err := newTestService(nil).Close(); err != nil {
		t.Fatalf("close without publisher: %v", err)
	}
	pub := &recordingPublisher{}
	if err := newTestService(pub).Close(); err != nil || !pub.closed {
		t.Fatalf("close = %v, closed = %v", err, pub.closed)
	}
}

func TestMultiPublisher(t *testing.T) {
	if NewMultiPublisher() != nil {
		t.Fatal("expected nil for no publishers")
	}

	ok := &recordingPublisher{}
	bad := &recordingPublisher{err: errors.New("boom")}
	m := NewMultiPublisher(ok, nil, bad)
	if m.Len() != 2 {
		t.Fatalf("len = %d", m.Len())
	}

	err := m.Publish(context.Background(), core.NewExpenseEvent(core.EventCreated, core.Expense{ID: "x"}))
	if err == nil || err.Error() != "boom" {
		t.Errorf("publish error = %v", err)
	}
	if len(ok.types()) != 1 || len(bad.types()) != 1 {
		t.Error("every publisher should receive the event")
	}
	if err := m.Close(); err != nil || !ok.closed || !bad.closed {
		t.Errorf("close = %v", err)
	}
}
