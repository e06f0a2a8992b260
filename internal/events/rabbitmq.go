package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/benvon/cupid-code/internal/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/benvon/cupid-code/internal/events"

const (
	// DefaultQueueName is the activity queue consumed by the worker
	DefaultQueueName = "task_activity_events"
	// DefaultDLQName is the dead letter queue name
	DefaultDLQName = "task_activity_events_dlq"
	// DefaultExchangeName is the exchange task events are published to
	DefaultExchangeName = "task_events"

	eventsRoutingKey = "task.events"
	dlqRoutingKey    = "dlq"
)

// ErrBusClosed is returned by HealthCheck once the connection is gone
var ErrBusClosed = errors.New("event bus connection is closed")

// RabbitMQBus implements Bus using RabbitMQ
type RabbitMQBus struct {
	conn         *amqp.Connection
	publishMu    sync.Mutex
	channel      *amqp.Channel
	queueName    string
	dlqName      string
	exchangeName string
}

// NewRabbitMQBus connects to RabbitMQ and declares the exchange and queues
func NewRabbitMQBus(amqpURL string) (*RabbitMQBus, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	bus := &RabbitMQBus{
		conn:         conn,
		channel:      ch,
		queueName:    DefaultQueueName,
		dlqName:      DefaultDLQName,
		exchangeName: DefaultExchangeName,
	}

	if err := bus.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return bus, nil
}

// setup configures the exchange, the dead letter queue and the main queue
func (b *RabbitMQBus) setup() error {
	err := b.channel.ExchangeDeclare(
		b.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = b.channel.QueueDeclare(
		b.dlqName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := b.channel.QueueBind(b.dlqName, dlqRoutingKey, b.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    b.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	_, err = b.channel.QueueDeclare(
		b.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		queueArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := b.channel.QueueBind(b.queueName, eventsRoutingKey, b.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}

	return nil
}

// Publish sends an event to the task events exchange
func (b *RabbitMQBus) Publish(ctx context.Context, event *Event) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, b.exchangeName+" publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", b.exchangeName),
			attribute.String("messaging.message.id", event.ID.String()),
			attribute.String("cupid.event_type", string(event.Type)),
		),
	)
	defer span.End()

	body, err := json.Marshal(event)
	if err != nil {
		span.SetStatus(codes.Error, "marshal failed")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, telemetry.AMQPHeaders(headers))

	publishing := amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
	}

	// amqp channels are not safe for concurrent publishing
	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	err = b.channel.PublishWithContext(
		ctx,
		b.exchangeName,
		eventsRoutingKey,
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Consume returns a channel of messages from the activity queue
func (b *RabbitMQBus) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount < 1 {
		prefetchCount = 1
	}

	// Consumers get their own channel
	consumeCh, err := b.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		b.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() {
			// Channel may already be closed with the connection
			_ = consumeCh.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					sendErr(errChan, fmt.Errorf("delivery channel closed"))
					return
				}

				var event Event
				if err := json.Unmarshal(delivery.Body, &event); err != nil {
					// Undecodable, straight to the DLQ
					_ = delivery.Nack(false, false)
					sendErr(errChan, fmt.Errorf("failed to unmarshal event: %w", err))
					continue
				}

				msg := &Message{
					ctx:         otel.GetTextMapPropagator().Extract(context.Background(), telemetry.AMQPHeaders(delivery.Headers)),
					Event:       &event,
					DeliveryTag: delivery.DeliveryTag,
					Channel:     consumeCh,
					redelivered: delivery.Redelivered,
				}

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// sendErr reports err without blocking the delivery loop
func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}

// HealthCheck verifies the broker connection is open
func (b *RabbitMQBus) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.conn == nil || b.conn.IsClosed() {
		return ErrBusClosed
	}
	if b.channel == nil || b.channel.IsClosed() {
		return ErrBusClosed
	}
	return nil
}

// Close closes the channel and connection
func (b *RabbitMQBus) Close() error {
	var err error
	if b.channel != nil {
		err = b.channel.Close()
	}
	if b.conn != nil {
		if closeErr := b.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

var _ Bus = (*RabbitMQBus)(nil)
