package kafka

import (
	"encoding/json"
	"testing"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func TestNewMessage(t *testing.T) {
	ev := core.NewExpenseEvent(core.EventCreated, core.Expense{ID: "e-1", Title: "Rent", Amount: 900})

	msg, err := newMessage(ev)
	if err != nil {
		t.Fatalf("newMessage: %v", err)
	}
	if string(msg.Key) != "e-1" {
		t.Errorf("key = %q, want e-1", msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != headerEventType || string(msg.Headers[0].Value) != "expense.created" {
		t.Errorf("headers = %+v", msg.Headers)
	}

	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded["type"] != "expense.created" || decoded["id"] != "e-1" {
		t.Errorf("value = %s", msg.Value)
	}
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	tests := []struct {
		name    string
		brokers []string
		topic   string
		wantErr bool
	}{
		{"no brokers", nil, "events", true},
		{"no topic", []string{"localhost:9092"}, "", true},
		{"ok", []string{"localhost:9092"}, "events", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProducer(tt.brokers, tt.topic, applog.Discard())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if p != nil {
				if err := p.Close(); err != nil {
					t.Errorf("close: %v", err)
				}
			}
		})
	}
}
