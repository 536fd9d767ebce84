package amqp

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expensetracker/internal/core"
)

const headerEventType = "event_type"

// newPublishing encodes ev as a persistent JSON message.
func newPublishing(ev core.ExpenseEvent) (amqp091.Publishing, error) {
	body, err := ev.ToJSON()
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		MessageId:    ev.ID,
		Type:         string(ev.Type),
		Headers:      amqp091.Table{headerEventType: string(ev.Type)},
		Body:         body,
	}, nil
}

// decodeEvent parses a message body and rejects events without a type or
// record id.
func decodeEvent(body []byte) (core.ExpenseEvent, error) {
	ev, err := core.ExpenseEventFromJSON(body)
	if err != nil {
		return core.ExpenseEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	switch ev.Type {
	case core.EventCreated, core.EventUpdated, core.EventDeleted:
	default:
		return core.ExpenseEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	if ev.ID == "" {
		return core.ExpenseEvent{}, fmt.Errorf("event without expense id")
	}
	return ev, nil
}
