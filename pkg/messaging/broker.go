package messaging

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Publisher publishes typed domain events.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}

// Message is the envelope placed on the broker channel.
type Message struct {
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}
