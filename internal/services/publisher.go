package services

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/core"
)

// EventPublisher delivers expense change events to a broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev core.ExpenseEvent) error
	Close() error
}

// MultiPublisher sends every event to all of its publishers concurrently.
type MultiPublisher struct {
	publishers []EventPublisher
}

// NewMultiPublisher fans out to the non-nil publishers given. It returns
// nil when there are none.
func NewMultiPublisher(publishers ...EventPublisher) *MultiPublisher {
	var ps []EventPublisher
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil
	}
	return &MultiPublisher{publishers: ps}
}

// Publish waits for every publisher and returns the first failure. One
// failing publisher does not cancel the others.
func (m *MultiPublisher) Publish(ctx context.Context, ev core.ExpenseEvent) error {
	var g errgroup.Group
	for _, p := range m.publishers {
		p := p
		g.Go(func() error {
			return p.Publish(ctx, ev)
		})
	}
	return g.Wait()
}

func (m *MultiPublisher) Close() error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many publishers are attached.
func (m *MultiPublisher) Len() int {
	return len(m.publishers)
}
