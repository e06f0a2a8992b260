package telemetry

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/propagation"
)

// AMQPHeaders carries trace context in AMQP message headers
type AMQPHeaders amqp.Table

// Get returns the string header for key.
func (h AMQPHeaders) Get(key string) string {
	if v, ok := h[key].(string); ok {
		return v
	}
	return ""
}

// Set stores a string header.
func (h AMQPHeaders) Set(key, value string) {
	h[key] = value
}

// Keys lists the header names.
func (h AMQPHeaders) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

var _ propagation.TextMapCarrier = AMQPHeaders(nil)
