package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const headerEventType = "event_type"

// Producer writes expense events to a single topic. Messages are keyed by
// expense id so all events for one record land on the same partition.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *applog.Logger
}

func NewProducer(brokers []string, topic string, logger *applog.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentKafka)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
		Logger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Debug(fmt.Sprintf(msg, args...))
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error(fmt.Sprintf(msg, args...))
		}),
	}

	logger.Info("Kafka producer initialized", "brokers", brokers, "topic", topic)
	return &Producer{writer: writer, topic: topic, logger: logger}, nil
}

func (p *Producer) Publish(ctx context.Context, ev core.ExpenseEvent) error {
	msg, err := newMessage(ev)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "Failed to produce message to Kafka topic",
			"topic", p.topic,
			applog.FieldEventType, ev.Type,
			applog.FieldError, err)
		return fmt.Errorf("failed to produce message: %w", err)
	}
	p.logger.DebugContext(ctx, "Produced message to topic",
		"topic", p.topic,
		applog.FieldEventType, ev.Type,
		applog.FieldExpenseID, ev.ID)
	return nil
}

func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", applog.FieldError, err)
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}

func newMessage(ev core.ExpenseEvent) (kafka.Message, error) {
	body, err := ev.ToJSON()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(ev.ID),
		Value: body,
		Time:  ev.Timestamp,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(ev.Type)},
		},
	}, nil
}
