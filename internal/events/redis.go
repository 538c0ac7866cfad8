package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/utils"
)

var redisLog = logging.Global().With("component", "events.redis")

// RedisBus implements Bus on Redis pub/sub channels
type RedisBus struct {
	client        *redis.Client
	subscriptions map[string]*redisSubscription
	mu            sync.Mutex
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

// NewRedisBus connects to Redis at addr and verifies the connection
func NewRedisBus(addr, password string, db int) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), utils.BrokerConnectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBus{
		client:        client,
		subscriptions: make(map[string]*redisSubscription),
	}, nil
}

// Publish publishes data to a channel
func (b *RedisBus) Publish(ctx context.Context, subject string, data []byte) error {
	if err := b.client.Publish(ctx, subject, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// Subscribe subscribes to a channel with the given handler
func (b *RedisBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to channel: %s", subject)
	}

	pubsub := b.client.Subscribe(ctx, subject)
	// Wait for the subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	b.subscriptions[subject] = &redisSubscription{pubsub: pubsub, cancel: cancel}

	go b.consume(subCtx, pubsub, handler)

	redisLog.Info("Subscribed to Redis channel", "channel", subject)
	return nil
}

func (b *RedisBus) consume(ctx context.Context, pubsub *redis.PubSub, handler MessageHandler) {
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := handler(ctx, msg.Channel, []byte(msg.Payload)); err != nil {
				redisLog.Error("Failed to handle message", "channel", msg.Channel, "error", err)
			}
		}
	}
}

// Unsubscribe unsubscribes from a channel
func (b *RedisBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to channel: %s", subject)
	}

	sub.cancel()
	delete(b.subscriptions, subject)
	if err := sub.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subject, err)
	}

	redisLog.Info("Unsubscribed from Redis channel", "channel", subject)
	return nil
}

// Close closes all subscriptions and the client
func (b *RedisBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		sub.cancel()
		if err := sub.pubsub.Close(); err != nil {
			redisLog.Warn("Failed to close subscription", "channel", subject, "error", err)
		}
	}
	b.subscriptions = make(map[string]*redisSubscription)

	return b.client.Close()
}
