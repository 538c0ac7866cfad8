package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

const (
	// ShutdownTimeout bounds graceful HTTP shutdown
	ShutdownTimeout = 10 * time.Second

	// BrokerConnectTimeout bounds the initial broker handshake
	BrokerConnectTimeout = 5 * time.Second

	// EventPublishTimeout bounds publishing one refresh event
	EventPublishTimeout = 5 * time.Second
)

// =============================================================================
// Buffer Constants
// =============================================================================

const (
	// DefaultBufferSize is the default buffer size for subscriber channels
	DefaultBufferSize = 100
)

// =============================================================================
// Event Bus Type Constants
// =============================================================================

// BusType represents the broker used to broadcast refresh events
type BusType string

const (
	// BusTypeMemory delivers events inside one process (default)
	BusTypeMemory BusType = "memory"

	// BusTypeNATS uses core NATS subjects
	BusTypeNATS BusType = "nats"

	// BusTypeRedis uses Redis pub/sub channels
	BusTypeRedis BusType = "redis"

	// BusTypeKafka uses Kafka topics with one consumer group per instance
	BusTypeKafka BusType = "kafka"
)
