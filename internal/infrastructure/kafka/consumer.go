package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
)

const (
	defaultPollTimeout = 5 * time.Second

	// Delay after a failed fetch doubles from minFetchBackoff up to
	// maxFetchBackoff and resets after a successful fetch.
	minFetchBackoff = time.Second
	maxFetchBackoff = 10 * time.Second
)

// MessageHandler receives the telemetry topic and payload of one record.
type MessageHandler func(topic string, payload []byte)

// Logger is the subset of logging.Logger the consumer uses.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// messageFetcher is the read side of *kafkago.Reader.
type messageFetcher interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type handlerEntry struct {
	filter  string
	handler MessageHandler
}

// Consumer reads telemetry records from one Kafka topic and routes them to
// handlers by MQTT-style filter.
//
// Each record's key carries the telemetry topic (<namespace>/<device-id>);
// records without a key are routed by the Kafka topic name. Records are
// committed after every matching handler has returned.
type Consumer struct {
	cfg    config.KafkaConfig
	reader messageFetcher
	poll   time.Duration

	minBackoff time.Duration
	maxBackoff time.Duration

	mu       sync.RWMutex
	handlers map[uint64]handlerEntry
	nextID   uint64
	closed   bool
	done     chan struct{}
	lastErr  error

	logger   Logger
	loggerMu sync.RWMutex
}

// NewConsumer creates a consumer-group reader for cfg.Topic. Reading starts
// when Run is called.
func NewConsumer(cfg config.KafkaConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, ErrNoTopic
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return nil, ErrNoGroup
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
		// Only live telemetry matters; a new group starts at the head.
		StartOffset: kafkago.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return newConsumer(cfg, reader), nil
}

func newConsumer(cfg config.KafkaConfig, reader messageFetcher) *Consumer {
	poll := time.Duration(cfg.PollTimeout) * time.Second
	if poll <= 0 {
		poll = defaultPollTimeout
	}
	return &Consumer{
		cfg:      cfg,
		reader:   reader,
		poll:       poll,
		minBackoff: minFetchBackoff,
		maxBackoff: maxFetchBackoff,
		handlers:   make(map[uint64]handlerEntry),
		done:       make(chan struct{}),
	}
}

// Subscribe registers handler for records whose telemetry topic matches
// filter. The returned release function removes the handler; calling it more
// than once is harmless.
func (c *Consumer) Subscribe(filter string, handler MessageHandler) (func() error, error) {
	if err := ValidateFilter(filter); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("kafka: handler cannot be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	id := c.nextID
	c.nextID++
	c.handlers[id] = handlerEntry{filter: filter, handler: handler}

	var once sync.Once
	release := func() error {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
		return nil
	}
	return release, nil
}

// HandlerCount returns the number of registered handlers.
func (c *Consumer) HandlerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handlers)
}

// Run fetches records until ctx is cancelled or the consumer is closed.
// Transient fetch errors are logged and retried with exponential backoff.
func (c *Consumer) Run(ctx context.Context) error {
	logger := c.getLogger()
	if logger != nil {
		logger.Info("kafka consumer started",
			"topic", c.cfg.Topic,
			"group", c.cfg.GroupID,
			"brokers", strings.Join(c.cfg.Brokers, ","),
		)
		defer logger.Info("kafka consumer stopped")
	}

	backoff := c.minBackoff
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fetchCtx, cancel := context.WithTimeout(ctx, c.poll)
		msg, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, context.Canceled):
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, kafkago.ErrGroupClosed):
				return nil
			}
			c.setLastErr(err)
			if logger != nil {
				logger.Error("kafka fetch failed", "error", err, "retry_in", backoff)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.done:
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.maxBackoff)
			continue
		}
		backoff = c.minBackoff
		c.setLastErr(nil)

		c.dispatch(recordTopic(msg), msg.Value)

		commitCtx, commitCancel := context.WithTimeout(ctx, c.poll)
		if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
			if !(errors.Is(err, context.Canceled) && ctx.Err() != nil) && logger != nil {
				logger.Error("kafka commit failed", "offset", msg.Offset, "error", err)
			}
		}
		commitCancel()
	}
}

// recordTopic returns the telemetry topic a record was published for.
func recordTopic(msg kafkago.Message) string {
	if len(msg.Key) > 0 {
		return string(msg.Key)
	}
	return msg.Topic
}

func (c *Consumer) dispatch(topic string, payload []byte) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return
	}
	var matched []MessageHandler
	for _, entry := range c.handlers {
		if MatchFilter(entry.filter, topic) {
			matched = append(matched, entry.handler)
		}
	}
	c.mu.RUnlock()

	for _, handler := range matched {
		c.invoke(handler, topic, payload)
	}
}

func (c *Consumer) invoke(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if logger := c.getLogger(); logger != nil {
				logger.Error("kafka handler panic recovered", "topic", topic, "panic", r)
			}
		}
	}()
	handler(topic, payload)
}

func (c *Consumer) setLastErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// HealthCheck reports ErrClosed after Close, or the most recent fetch error
// if the last fetch failed.
func (c *Consumer) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka health check: %w", err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	if c.lastErr != nil {
		return fmt.Errorf("kafka health check: %w", c.lastErr)
	}
	return nil
}

// Close stops dispatching and closes the reader. Safe to call more than
// once.
func (c *Consumer) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.handlers = make(map[uint64]handlerEntry)
	c.mu.Unlock()

	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// SetLogger sets the logger used for fetch, commit and handler failures.
func (c *Consumer) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Consumer) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}
