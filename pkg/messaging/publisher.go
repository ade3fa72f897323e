package messaging

import (
	"context"
	"fmt"
	"time"
)

// EventPublisher wraps raw event payloads in a Message and sends them to a
// single channel.
type EventPublisher struct {
	broker  Broker
	channel string
	now     func() time.Time
}

func NewEventPublisher(broker Broker, channel string) *EventPublisher {
	return &EventPublisher{broker: broker, channel: channel, now: time.Now}
}

func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	if p.broker == nil {
		return fmt.Errorf("no broker configured")
	}
	msg := Message{
		Type:       eventType,
		Payload:    payload,
		OccurredAt: p.now().UTC(),
	}
	if err := p.broker.Publish(ctx, p.channel, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// Channel returns the destination channel.
func (p *EventPublisher) Channel() string {
	return p.channel
}
