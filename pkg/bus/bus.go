// Package bus provides the durable publish/subscribe channel shared by all
// services. One fanout-style topic carries every event; each service binds
// one durable consumer group to it (broadcast across groups), and instances
// of the same service compete for messages within their group. Delivery is
// at-least-once: consumers commit offsets only after a handler finishes, so
// an unacknowledged message is redelivered.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// writeTimeout is the maximum time to wait for a broker write ack.
	writeTimeout = 10 * time.Second
	// maxPollWait bounds how long a fetch blocks waiting for new data.
	maxPollWait = 1 * time.Second
)

// QueueName returns the durable subscription name for a service, following
// the q.events.<service-name> convention.
func QueueName(service string) string {
	return "q.events." + service
}

// ParseBrokers parses a comma-separated broker list and trims whitespace.
func ParseBrokers(brokers string) []string {
	if brokers == "" {
		return nil
	}
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}
	return brokerList
}

// validateParams validates common connection parameters.
func validateParams(brokers, topic, groupID string, needGroup bool) error {
	if brokers == "" {
		return fmt.Errorf("brokers cannot be empty")
	}
	if topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if needGroup && groupID == "" {
		return fmt.Errorf("groupID cannot be empty")
	}
	return nil
}

// Publisher wraps a Kafka writer and publishes events to the shared topic.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a publisher for the given brokers and topic. Writes
// are synchronous and wait for a leader ack, so Publish returning nil means
// the broker has the message.
func NewPublisher(brokers, topic string) (*Publisher, error) {
	if err := validateParams(brokers, topic, "", false); err != nil {
		return nil, err
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing event bus publisher",
		"brokers", brokerList,
		"topic", topic,
	)

	createTopicIfNotExists(brokerList[0], topic)

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Publisher{writer: writer, topic: topic}, nil
}

// Publish enqueues the payload durably, keyed by eventID, and returns once
// the broker acknowledges the write. The returned error is the caller's
// signal that the event may not be on the bus.
func (p *Publisher) Publish(ctx context.Context, eventID string, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(eventID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
		},
		Time: time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to publish event",
			"event_id", eventID,
			"topic", p.topic,
			"error", err,
		)
		return fmt.Errorf("failed to publish event %s: %w", eventID, err)
	}
	return nil
}

// Close gracefully closes the underlying writer.
func (p *Publisher) Close() error {
	slog.Info("Closing event bus publisher", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		slog.Error("Error closing event bus publisher", "error", err)
		return err
	}
	return nil
}

// Consumer wraps a Kafka reader bound to one durable subscription.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	group  string
}

// NewConsumer creates a consumer for a durable subscription. The reader is
// configured for at-least-once delivery: offsets are committed explicitly
// via Commit, never on an interval.
func NewConsumer(brokers, topic, groupID string) (*Consumer, error) {
	if err := validateParams(brokers, topic, groupID, true); err != nil {
		return nil, err
	}

	brokerList := ParseBrokers(brokers)

	slog.Info("Initializing event bus consumer",
		"brokers", brokerList,
		"topic", topic,
		"group_id", groupID,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokerList,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     maxPollWait,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{reader: reader, topic: topic, group: groupID}, nil
}

// Fetch blocks until the next message for this subscription is available.
// The message is not acknowledged until Commit is called.
func (c *Consumer) Fetch(ctx context.Context) (kafka.Message, error) {
	msg, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}

// Commit acknowledges a fetched message. A message that is never committed
// is redelivered to the subscription.
func (c *Consumer) Commit(ctx context.Context, msg kafka.Message) error {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to commit offset: %w", err)
	}
	return nil
}

// Close gracefully closes the underlying reader.
func (c *Consumer) Close() error {
	slog.Info("Closing event bus consumer", "topic", c.topic, "group_id", c.group)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing event bus consumer", "error", err)
		return err
	}
	return nil
}

// createTopicIfNotExists attempts to create the topic if it doesn't exist.
// This is a best-effort operation; failures are logged and do not prevent
// publisher creation.
func createTopicIfNotExists(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check/create topic",
			"broker", broker,
			"topic", topic,
			"error", err,
		)
		return
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(topic)
	if err == nil && len(partitions) > 0 {
		return
	}

	topicConfig := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}

	if err := conn.CreateTopics(topicConfig); err != nil {
		slog.Warn("Could not create topic (may need to be created manually)",
			"topic", topic,
			"error", err,
		)
		return
	}

	slog.Info("Created topic", "topic", topic, "partitions", 3)
}
