package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/soltixdb/casetrend/internal/logging"
	"github.com/soltixdb/casetrend/internal/utils"
)

var memoryLog = logging.Global().With("component", "events.memory")

type memorySubscription struct {
	handler MessageHandler
	ctx     context.Context
	cancel  context.CancelFunc
	ch      chan memoryMessage
}

type memoryMessage struct {
	subject string
	data    []byte
}

// MemoryBus implements Bus inside one process. Buses created from the same
// broker see each other's messages, which lets tests model several instances.
type MemoryBus struct {
	broker        *MemoryBroker
	subscriptions map[string]*memorySubscription
	mu            sync.Mutex
	closed        bool
}

// MemoryBroker routes messages between MemoryBus instances
type MemoryBroker struct {
	subscribers map[string][]*memorySubscription
	mu          sync.RWMutex
}

// NewMemoryBroker creates an empty broker
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subscribers: make(map[string][]*memorySubscription)}
}

// NewMemoryBus creates a bus attached to broker. A nil broker creates a
// private one.
func NewMemoryBus(broker *MemoryBroker) *MemoryBus {
	if broker == nil {
		broker = NewMemoryBroker()
	}
	return &MemoryBus{
		broker:        broker,
		subscriptions: make(map[string]*memorySubscription),
	}
}

// Publish delivers data to every subscriber of subject. A subscriber whose
// buffer is full misses the message.
func (b *MemoryBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return fmt.Errorf("memory bus is closed")
	}

	b.broker.mu.RLock()
	subs := append([]*memorySubscription(nil), b.broker.subscribers[subject]...)
	b.broker.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.ch <- memoryMessage{subject: subject, data: data}:
		case <-sub.ctx.Done():
		default:
			memoryLog.Warn("Subscriber channel full, dropping message", "subject", subject)
		}
	}
	return nil
}

// Subscribe subscribes to a subject with the given handler
func (b *MemoryBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("memory bus is closed")
	}
	if _, exists := b.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &memorySubscription{
		handler: handler,
		ctx:     subCtx,
		cancel:  cancel,
		ch:      make(chan memoryMessage, utils.DefaultBufferSize),
	}
	b.subscriptions[subject] = sub

	b.broker.mu.Lock()
	b.broker.subscribers[subject] = append(b.broker.subscribers[subject], sub)
	b.broker.mu.Unlock()

	go consumeMemory(sub)

	memoryLog.Debug("Subscribed to in-memory subject", "subject", subject)
	return nil
}

func consumeMemory(sub *memorySubscription) {
	for {
		select {
		case <-sub.ctx.Done():
			return
		case msg := <-sub.ch:
			if err := sub.handler(sub.ctx, msg.subject, msg.data); err != nil {
				memoryLog.Error("Failed to handle message", "subject", msg.subject, "error", err)
			}
		}
	}
}

// Unsubscribe unsubscribes from a subject
func (b *MemoryBus) Unsubscribe(subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, exists := b.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	b.detach(subject, sub)
	delete(b.subscriptions, subject)
	return nil
}

func (b *MemoryBus) detach(subject string, sub *memorySubscription) {
	sub.cancel()

	b.broker.mu.Lock()
	defer b.broker.mu.Unlock()

	subs := b.broker.subscribers[subject]
	for i, s := range subs {
		if s == sub {
			b.broker.subscribers[subject] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.broker.subscribers[subject]) == 0 {
		delete(b.broker.subscribers, subject)
	}
}

// Close cancels every subscription of this bus
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subject, sub := range b.subscriptions {
		b.detach(subject, sub)
	}
	b.subscriptions = make(map[string]*memorySubscription)
	b.closed = true
	return nil
}
