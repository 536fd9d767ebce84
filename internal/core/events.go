package core

import (
	"encoding/json"
	"time"
)

// EventType names a change to an expense record.
type EventType string

const (
	EventCreated EventType = "expense.created"
	EventUpdated EventType = "expense.updated"
	EventDeleted EventType = "expense.deleted"
)

// ExpenseEvent is published after a successful write. Expense holds the
// record state after the change, or the removed record for deletes.
type ExpenseEvent struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	Expense   Expense   `json:"expense"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent stamps an event for e.
func NewExpenseEvent(t EventType, e Expense) ExpenseEvent {
	return ExpenseEvent{
		Type:      t,
		ID:        e.ID,
		Expense:   e,
		Timestamp: NormalizeTime(time.Now()),
	}
}

// ToJSON encodes the event for the wire.
func (ev ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(ev)
}

// ExpenseEventFromJSON decodes an event produced by ToJSON.
func ExpenseEventFromJSON(data []byte) (ExpenseEvent, error) {
	var ev ExpenseEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ExpenseEvent{}, err
	}
	return ev, nil
}
