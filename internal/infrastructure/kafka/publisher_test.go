package kafka

import (
	"context"
	"errors"
	"testing"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
)

type fakeWriter struct {
	written []kafkago.Message
	err     error
	closes  int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closes++
	return nil
}

func TestNewPublisher_Validation(t *testing.T) {
	if _, err := NewPublisher(config.KafkaConfig{Topic: "t"}); !errors.Is(err, ErrNoBrokers) {
		t.Errorf("NewPublisher() error = %v, want ErrNoBrokers", err)
	}
	if _, err := NewPublisher(config.KafkaConfig{Brokers: []string{"b:9092"}}); !errors.Is(err, ErrNoTopic) {
		t.Errorf("NewPublisher() error = %v, want ErrNoTopic", err)
	}
	p, err := NewPublisher(testKafkaConfig())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	w, ok := p.writer.(*kafkago.Writer)
	if !ok || w.Topic != "dht-telemetry" {
		t.Errorf("writer = %#v", p.writer)
	}
}

func TestPublisher_KeysByTelemetryTopic(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{writer: w}

	if err := p.Publish(context.Background(), "purdue-dac/s1", []byte("72:40:1700000000")); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(w.written) != 1 {
		t.Fatalf("written %d messages, want 1", len(w.written))
	}
	m := w.written[0]
	if string(m.Key) != "purdue-dac/s1" || string(m.Value) != "72:40:1700000000" {
		t.Errorf("message key=%q value=%q", m.Key, m.Value)
	}
}

func TestPublisher_Errors(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{writer: w}

	if err := p.Publish(context.Background(), "", nil); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish(empty topic) error = %v, want ErrPublishFailed", err)
	}
	if err := p.Publish(context.Background(), "ns/a", nil); !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}

	p.Close()
	p.Close()
	if w.closes != 1 {
		t.Errorf("writer closed %d times, want 1", w.closes)
	}
	if err := p.Publish(context.Background(), "ns/a", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close error = %v, want ErrClosed", err)
	}
}
