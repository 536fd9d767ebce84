package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// EventSink records one expense change event in an external sheet.
	EventSink interface {
		AppendEvent(ctx context.Context, ev core.ExpenseEvent) error
	}
)
