package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/utils"
)

var natsLog = logging.Global().With("component", "events.nats")

// NATSBus implements Bus on core NATS subjects. Core subscriptions fan out
// to every connected instance and keep no history.
type NATSBus struct {
	conn          *nats.Conn
	instanceID    string
	subscriptions map[string]*nats.Subscription
	mu            sync.Mutex
}

// NewNATSBus connects to the NATS server at url
func NewNATSBus(url, instanceID string) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name(fmt.Sprintf("casetrend-%s", instanceID)),
		nats.Timeout(utils.BrokerConnectTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				natsLog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			natsLog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSBus{
		conn:          conn,
		instanceID:    instanceID,
		subscriptions: make(map[string]*nats.Subscription),
	}, nil
}

// Publish publishes data and flushes so the message leaves before return
func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	if err := b.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush %s: %w", subject, err)
	}
	return nil
}

// Subscribe subscribes to a subject with the given handler
func (b *NATSBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		if ctx.Err() != nil {
			natsLog.Debug("Context cancelled, skipping message", "subject", msg.Subject)
			return
		}
		if err := handler(ctx, msg.Subject, msg.Data); err != nil {
			natsLog.Error("Failed to handle message",
				"subject", msg.Subject,
				"error", err,
				"data_preview", string(msg.Data[:min(100, len(msg.Data))]))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	// The subscription must be registered on the server before a publish
	// from this connection can reach it.
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	b.subscriptions[subject] = sub
	natsLog.Info("Subscribed to subject", "subject", subject, "instance", b.instanceID)
	return nil
}

// Unsubscribe unsubscribes from a subject
func (b *NATSBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}

	delete(b.subscriptions, subject)
	natsLog.Info("Unsubscribed from subject", "subject", subject)
	return nil
}

// Close closes all subscriptions and the connection
func (b *NATSBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			natsLog.Warn("Failed to unsubscribe", "subject", subject, "error", err)
		}
	}
	b.subscriptions = make(map[string]*nats.Subscription)

	if b.conn != nil {
		b.conn.Close()
	}
	return nil
}
