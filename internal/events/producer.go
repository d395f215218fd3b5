package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes auth lifecycle events. A nil Producer is a no-op so the
// service runs without a broker configured.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 {
		return nil
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

type authEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	OccurredAt int64  `json:"occurred_at"`
}

func (p *Producer) Publish(ctx context.Context, eventType, userID string) error {
	if p == nil || p.writer == nil {
		return nil
	}

	data, err := json.Marshal(authEvent{
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: data,
	}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
