package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Topic carrying serialized notification messages for the email worker.
const Topic = "notifications.email"

// KafkaSender publishes messages to Kafka for asynchronous delivery by
// a downstream worker, decoupling request latency from the email
// provider.
type KafkaSender struct {
	writer *kafka.Writer
}

// NewKafkaSender creates a publisher for the given brokers.
func NewKafkaSender(brokers []string) *KafkaSender {
	return &KafkaSender{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    Topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Send publishes the message keyed by recipient, so one recipient's
// notifications stay ordered.
func (s *KafkaSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RecipientID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaSender) Close() error {
	return s.writer.Close()
}
