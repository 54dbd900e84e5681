package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
)

// messageWriter is the write side of *kafkago.Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes telemetry records to the configured Kafka topic, keyed
// by telemetry topic so every device's readings land on one partition in
// order.
type Publisher struct {
	writer messageWriter

	mu     sync.Mutex
	closed bool
}

// NewPublisher creates a synchronous writer for cfg.Topic.
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, ErrNoTopic
	}
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			Async:        false,
		},
	}, nil
}

// Publish writes one record with key=topic and value=payload.
func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if topic == "" {
		return fmt.Errorf("%w: empty telemetry topic", ErrPublishFailed)
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(topic),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close flushes and closes the writer. Safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
