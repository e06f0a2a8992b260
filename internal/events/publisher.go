package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultPublishBuffer is the number of events AsyncPublisher holds before dropping
	DefaultPublishBuffer = 256
	publishTimeout       = 5 * time.Second
)

// ErrPublishBufferFull is returned when AsyncPublisher drops an event
var ErrPublishBufferFull = errors.New("event publish buffer is full")

// AsyncPublisher decouples store mutations from broker latency. Publish only
// enqueues; Run forwards events to the wrapped publisher in order.
type AsyncPublisher struct {
	next   Publisher
	events chan *Event
	logger *zap.Logger
}

// NewAsyncPublisher wraps next with a buffered queue
func NewAsyncPublisher(next Publisher, buffer int, logger *zap.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = DefaultPublishBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncPublisher{
		next:   next,
		events: make(chan *Event, buffer),
		logger: logger,
	}
}

// Publish enqueues the event. It never blocks.
func (p *AsyncPublisher) Publish(_ context.Context, event *Event) error {
	select {
	case p.events <- event:
		return nil
	default:
		p.logger.Warn("event_dropped",
			zap.String("event_type", string(event.Type)),
			zap.String("session_id", event.SessionID.String()),
		)
		return ErrPublishBufferFull
	}
}

// Run forwards queued events until ctx is done, then flushes what is
// already buffered.
func (p *AsyncPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.drain()
			return nil
		case ev := <-p.events:
			p.forward(ev)
		}
	}
}

func (p *AsyncPublisher) drain() {
	for {
		select {
		case ev := <-p.events:
			p.forward(ev)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) forward(ev *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.next.Publish(ctx, ev); err != nil {
		p.logger.Error("event_publish_failed",
			zap.String("event_type", string(ev.Type)),
			zap.String("event_id", ev.ID.String()),
			zap.Error(err),
		)
	}
}

var _ Publisher = (*AsyncPublisher)(nil)
