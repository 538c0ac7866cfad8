// Package events broadcasts table refreshes between service instances.
//
// Every instance subscribes to the same subject and receives every event;
// unlike a work queue there is no load balancing between consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MessageHandler is a function that processes incoming messages
type MessageHandler func(ctx context.Context, subject string, data []byte) error

// Bus publishes and receives broadcast messages
type Bus interface {
	// Publish sends data to every subscriber of subject
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers handler for subject until Unsubscribe or Close
	Subscribe(ctx context.Context, subject string, handler MessageHandler) error

	// Unsubscribe removes the subscription for subject
	Unsubscribe(subject string) error

	// Close closes the bus and releases resources
	Close() error
}

// RefreshEvent announces that an instance loaded a new table
type RefreshEvent struct {
	Origin    string    `json:"origin"`
	Version   uint64    `json:"version"`
	Countries int       `json:"countries"`
	Dates     int       `json:"dates"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Encode serializes the event
func (e RefreshEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeRefreshEvent parses an event published by Encode
func DecodeRefreshEvent(data []byte) (RefreshEvent, error) {
	var e RefreshEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RefreshEvent{}, fmt.Errorf("invalid refresh event: %w", err)
	}
	if e.Origin == "" {
		return RefreshEvent{}, fmt.Errorf("invalid refresh event: missing origin")
	}
	return e, nil
}
