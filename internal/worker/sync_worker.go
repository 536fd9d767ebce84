package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// SyncWorker mirrors expense change events into a sheet.
type SyncWorker struct {
	sink   sheets.EventSink
	logger *applog.Logger

	handled atomic.Int64
	failed  atomic.Int64
}

func NewSyncWorker(sink sheets.EventSink, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SyncWorker{
		sink:   sink,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleEvent appends ev to the sink. An error asks the consumer to
// redeliver the event later.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev core.ExpenseEvent) error {
	if w.sink == nil {
		return errors.New("no event sink configured")
	}

	w.logger.InfoContext(ctx, "Processing expense event",
		applog.FieldEventType, ev.Type,
		applog.FieldExpenseID, ev.ID)

	if err := w.sink.AppendEvent(ctx, ev); err != nil {
		w.failed.Add(1)
		return fmt.Errorf("sync %s for %s: %w", ev.Type, ev.ID, err)
	}
	w.handled.Add(1)
	return nil
}

// Stats reports how many events were mirrored and how many attempts failed.
func (w *SyncWorker) Stats() (handled, failed int64) {
	return w.handled.Load(), w.failed.Load()
}
