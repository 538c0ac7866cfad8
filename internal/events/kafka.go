package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/soltixdb/casetrend/internal/logging"
)

var kafkaLog = logging.Global().With("component", "events.kafka")

// KafkaBus implements Bus on Kafka topics. Each instance reads with its own
// consumer group so every instance sees every event.
type KafkaBus struct {
	brokers []string
	groupID string
	writer  *kafka.Writer
	readers map[string]*kafka.Reader
	cancels map[string]context.CancelFunc
	mu      sync.Mutex
}

// NewKafkaBus creates a bus for brokers. No connection is made until the
// first publish or subscribe.
func NewKafkaBus(brokers []string, instanceID string) (*KafkaBus, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if instanceID == "" {
		return nil, fmt.Errorf("instance id is required")
	}

	return &KafkaBus{
		brokers: brokers,
		groupID: ConsumerGroup(instanceID),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			BatchTimeout:           10 * time.Millisecond,
		},
		readers: make(map[string]*kafka.Reader),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// ConsumerGroup returns the per-instance consumer group name
func ConsumerGroup(instanceID string) string {
	return "casetrend-" + instanceID
}

// Publish writes data to the topic named subject
func (b *KafkaBus) Publish(ctx context.Context, subject string, data []byte) error {
	err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to Kafka topic %s: %w", subject, err)
	}
	return nil
}

// Subscribe subscribes to a topic with the given handler
func (b *KafkaBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.readers[subject]; exists {
		return fmt.Errorf("already subscribed to topic: %s", subject)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           b.brokers,
		GroupID:           b.groupID,
		Topic:             subject,
		MinBytes:          1,
		MaxBytes:          1e6,
		MaxWait:           3 * time.Second,
		CommitInterval:    time.Second,
		StartOffset:       kafka.LastOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
		ErrorLogger:       kafka.LoggerFunc(func(msg string, args ...interface{}) { kafkaLog.Debug(fmt.Sprintf(msg, args...)) }),
	})
	b.readers[subject] = reader

	subCtx, cancel := context.WithCancel(ctx)
	b.cancels[subject] = cancel

	go b.consume(subCtx, reader, subject, handler)

	kafkaLog.Info("Subscribed to Kafka topic", "topic", subject, "group", b.groupID)
	return nil
}

func (b *KafkaBus) consume(ctx context.Context, reader *kafka.Reader, subject string, handler MessageHandler) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			kafkaLog.Error("Failed to fetch message", "topic", subject, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// Refresh events are idempotent, so a failed handler is logged and
		// the offset still advances.
		if err := handler(ctx, subject, msg.Value); err != nil {
			kafkaLog.Error("Failed to handle message", "topic", subject, "offset", msg.Offset, "error", err)
		}
		if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			kafkaLog.Error("Failed to commit message", "topic", subject, "offset", msg.Offset, "error", err)
		}
	}
}

// Unsubscribe unsubscribes from a topic
func (b *KafkaBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	cancel, exists := b.cancels[subject]
	if !exists {
		return fmt.Errorf("not subscribed to topic: %s", subject)
	}
	cancel()
	delete(b.cancels, subject)

	if reader, ok := b.readers[subject]; ok {
		if err := reader.Close(); err != nil {
			kafkaLog.Warn("Failed to close reader", "topic", subject, "error", err)
		}
		delete(b.readers, subject)
	}

	kafkaLog.Info("Unsubscribed from Kafka topic", "topic", subject)
	return nil
}

// Close closes all readers and the writer
func (b *KafkaBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, cancel := range b.cancels {
		cancel()
	}
	b.cancels = make(map[string]context.CancelFunc)

	var lastErr error
	for topic, reader := range b.readers {
		if err := reader.Close(); err != nil {
			kafkaLog.Warn("Failed to close reader", "topic", topic, "error", err)
			lastErr = err
		}
	}
	b.readers = make(map[string]*kafka.Reader)

	if err := b.writer.Close(); err != nil {
		lastErr = err
	}
	return lastErr
}
