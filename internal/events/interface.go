package events

import (
	"context"
)

// MessageInterface defines the interface for consumed messages
// This enables testing the worker without a broker
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetEvent() *Event
	Redelivered() bool
}

// Publisher sends events
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
}

// Bus is the broker-facing event transport
type Bus interface {
	Publisher

	// Consume returns a channel of messages from the activity queue
	// The caller is responsible for acknowledging each message
	// Prefetch controls how many unacknowledged messages this consumer can hold
	// The returned channels are closed when ctx is cancelled or the delivery channel closes
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the broker connection
	Close() error

	// HealthCheck verifies the broker connection is healthy
	HealthCheck(ctx context.Context) error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, *Event) error { return nil }
