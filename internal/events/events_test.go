package events

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/soltixdb/casetrend/internal/config"
)

// setupTestNATS creates an embedded NATS server for testing
func setupTestNATS(t *testing.T) (string, func()) {
	opts := &server.Options{
		Host: "127.0.0.1",
		Port: -1, // Random port
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		t.Fatalf("Failed to create NATS server: %v", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	cleanup := func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	}
	return ns.ClientURL(), cleanup
}

// collector records payloads delivered to a handler
type collector struct {
	mu   sync.Mutex
	data [][]byte
	ch   chan struct{}
}

func newCollector() *collector {
	return &collector{ch: make(chan struct{}, 16)}
}

func (c *collector) handle(ctx context.Context, subject string, data []byte) error {
	c.mu.Lock()
	c.data = append(c.data, data)
	c.mu.Unlock()
	c.ch <- struct{}{}
	return nil
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestRefreshEvent_EncodeDecode(t *testing.T) {
	loaded := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	event := RefreshEvent{Origin: "node-a", Version: 3, Countries: 190, Dates: 400, LoadedAt: loaded}

	data, err := event.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeRefreshEvent(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Origin != "node-a" || decoded.Version != 3 || decoded.Countries != 190 || decoded.Dates != 400 {
		t.Errorf("Unexpected decoded event %+v", decoded)
	}
	if !decoded.LoadedAt.Equal(loaded) {
		t.Errorf("Expected loaded_at %v, got %v", loaded, decoded.LoadedAt)
	}
}

func TestDecodeRefreshEvent_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "refresh"},
		{"missing origin", `{"version":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeRefreshEvent([]byte(tt.data)); err == nil {
				t.Error("Expected decode error")
			}
		})
	}
}

func TestMemoryBus_BroadcastAcrossInstances(t *testing.T) {
	broker := NewMemoryBroker()
	a := NewMemoryBus(broker)
	b := NewMemoryBus(broker)
	defer func() { _ = a.Close() }()
	defer func() { _ = b.Close() }()

	ctx := context.Background()
	ca, cb := newCollector(), newCollector()
	if err := a.Subscribe(ctx, "table.refreshed", ca.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := b.Subscribe(ctx, "table.refreshed", cb.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := a.Publish(ctx, "table.refreshed", []byte("v1")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	ca.wait(t)
	cb.wait(t)
	if string(cb.data[0]) != "v1" {
		t.Errorf("Expected v1, got %s", cb.data[0])
	}
}

func TestMemoryBus_DuplicateSubscribe(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer func() { _ = bus.Close() }()

	ctx := context.Background()
	noop := func(ctx context.Context, subject string, data []byte) error { return nil }
	if err := bus.Subscribe(ctx, "s", noop); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := bus.Subscribe(ctx, "s", noop); err == nil {
		t.Error("Expected error on duplicate subscribe")
	}
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	broker := NewMemoryBroker()
	bus := NewMemoryBus(broker)
	defer func() { _ = bus.Close() }()

	ctx := context.Background()
	var received atomic.Int32
	err := bus.Subscribe(ctx, "s", func(ctx context.Context, subject string, data []byte) error {
		received.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := bus.Unsubscribe("s"); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if err := bus.Unsubscribe("s"); err == nil {
		t.Error("Expected error unsubscribing twice")
	}

	if err := bus.Publish(ctx, "s", []byte("x")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if received.Load() != 0 {
		t.Errorf("Expected no deliveries after unsubscribe, got %d", received.Load())
	}
}

func TestMemoryBus_Closed(t *testing.T) {
	bus := NewMemoryBus(nil)
	_ = bus.Close()

	if err := bus.Publish(context.Background(), "s", nil); err == nil {
		t.Error("Expected publish on closed bus to fail")
	}
	noop := func(ctx context.Context, subject string, data []byte) error { return nil }
	if err := bus.Subscribe(context.Background(), "s", noop); err == nil {
		t.Error("Expected subscribe on closed bus to fail")
	}
}

func TestNATSBus_PublishSubscribe(t *testing.T) {
	url, cleanup := setupTestNATS(t)
	defer cleanup()

	a, err := NewNATSBus(url, "node-a")
	if err != nil {
		t.Fatalf("Failed to create NATS bus: %v", err)
	}
	defer func() { _ = a.Close() }()

	b, err := NewNATSBus(url, "node-b")
	if err != nil {
		t.Fatalf("Failed to create NATS bus: %v", err)
	}
	defer func() { _ = b.Close() }()

	ctx := context.Background()
	ca, cb := newCollector(), newCollector()
	if err := a.Subscribe(ctx, "casetrend.table.refreshed", ca.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := b.Subscribe(ctx, "casetrend.table.refreshed", cb.handle); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := a.Publish(ctx, "casetrend.table.refreshed", []byte("hello")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	ca.wait(t)
	cb.wait(t)
	if string(cb.data[0]) != "hello" {
		t.Errorf("Expected hello, got %s", cb.data[0])
	}

	if err := b.Unsubscribe("casetrend.table.refreshed"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
	if err := b.Unsubscribe("casetrend.table.refreshed"); err == nil {
		t.Error("Expected error unsubscribing twice")
	}
}

func TestNewNATSBus_InvalidURL(t *testing.T) {
	bus, err := NewNATSBus("nats://127.0.0.1:1", "node-a")
	if err == nil {
		_ = bus.Close()
		t.Fatal("Expected error with unreachable server")
	}
}

func TestNewRedisBus_Unreachable(t *testing.T) {
	bus, err := NewRedisBus("127.0.0.1:1", "", 0)
	if err == nil {
		_ = bus.Close()
		t.Fatal("Expected error with unreachable Redis")
	}
}

func TestNewKafkaBus_Validation(t *testing.T) {
	if _, err := NewKafkaBus(nil, "node-a"); err == nil {
		t.Error("Expected error without brokers")
	}
	if _, err := NewKafkaBus([]string{"localhost:9092"}, ""); err == nil {
		t.Error("Expected error without instance id")
	}

	bus, err := NewKafkaBus([]string{"localhost:9092"}, "node-a")
	if err != nil {
		t.Fatalf("NewKafkaBus failed: %v", err)
	}
	if bus.groupID != "casetrend-node-a" {
		t.Errorf("Expected per-instance group, got %s", bus.groupID)
	}
	if err := bus.Unsubscribe("missing"); err == nil {
		t.Error("Expected error unsubscribing unknown topic")
	}
	_ = bus.Close()
}

func TestNewBus(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.EventsConfig
		wantErr  bool
		wantType string
	}{
		{"default is memory", config.EventsConfig{}, false, "memory"},
		{"memory", config.EventsConfig{Type: "MEMORY"}, false, "memory"},
		{"kafka", config.EventsConfig{Type: "kafka", KafkaBrokers: []string{"localhost:9092"}}, false, "kafka"},
		{"kafka without brokers", config.EventsConfig{Type: "kafka"}, true, ""},
		{"unknown", config.EventsConfig{Type: "mqtt"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus, err := NewBus(tt.cfg, "node-a", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBus() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer func() { _ = bus.Close() }()

			switch tt.wantType {
			case "memory":
				if _, ok := bus.(*MemoryBus); !ok {
					t.Errorf("Expected *MemoryBus, got %T", bus)
				}
			case "kafka":
				if _, ok := bus.(*KafkaBus); !ok {
					t.Errorf("Expected *KafkaBus, got %T", bus)
				}
			}
		})
	}
}
