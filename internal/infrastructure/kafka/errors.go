package kafka

import "errors"

// Sentinel errors for Kafka operations. Match with errors.Is.
var (
	// ErrNoBrokers is returned when no bootstrap brokers are configured.
	ErrNoBrokers = errors.New("kafka: at least one broker is required")

	// ErrNoTopic is returned when the Kafka topic is empty.
	ErrNoTopic = errors.New("kafka: topic must not be empty")

	// ErrNoGroup is returned when the consumer group is empty.
	ErrNoGroup = errors.New("kafka: consumer group must not be empty")

	// ErrInvalidFilter is returned for an empty filter or a misplaced '#'.
	ErrInvalidFilter = errors.New("kafka: invalid topic filter")

	// ErrClosed is returned when using a consumer or publisher after Close.
	ErrClosed = errors.New("kafka: closed")

	// ErrPublishFailed is returned when a write is not acknowledged.
	ErrPublishFailed = errors.New("kafka: publish failed")
)
