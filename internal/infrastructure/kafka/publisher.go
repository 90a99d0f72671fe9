package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-stkpush-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

// TransactionPublisher emits transaction lifecycle events, keyed by the
// gateway request id so every event of one transaction lands on one partition.
type TransactionPublisher struct {
	writer *kafkago.Writer
}

func NewTransactionPublisher(brokers []string, topic string) *TransactionPublisher {
	return &TransactionPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *TransactionPublisher) PublishTransaction(ctx context.Context, event domain.TransactionEvent) error {
	msg, err := buildMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event for %s: %w", event.Type, event.RequestID, err)
	}
	return nil
}

func (p *TransactionPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event domain.TransactionEvent) (kafkago.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal transaction event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.RequestID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: eventTypeHeader, Value: []byte(event.Type)},
		},
	}, nil
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransaction(context.Context, domain.TransactionEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
