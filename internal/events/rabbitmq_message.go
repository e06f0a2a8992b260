package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Message wraps an Event with its RabbitMQ delivery information
type Message struct {
	ctx         context.Context
	Event       *Event
	DeliveryTag uint64
	Channel     *amqp.Channel
	redelivered bool
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	return m.Channel.Ack(m.DeliveryTag, false)
}

// Nack negatively acknowledges the message
func (m *Message) Nack(requeue bool) error {
	return m.Channel.Nack(m.DeliveryTag, false, requeue)
}

// GetEvent returns the decoded event
func (m *Message) GetEvent() *Event {
	return m.Event
}

// Redelivered reports whether the broker has delivered this message before
func (m *Message) Redelivered() bool {
	return m.redelivered
}

// Context carries the trace context the publisher attached to the message
func (m *Message) Context() context.Context {
	if m.ctx == nil {
		return context.Background()
	}
	return m.ctx
}

var _ MessageInterface = (*Message)(nil)
