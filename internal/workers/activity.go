package workers

import (
	"context"
	"fmt"

	"github.com/benvon/cupid-code/internal/database"
	"github.com/benvon/cupid-code/internal/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/cupid-code/internal/workers"

// counterFor maps event types to the activity column they bump
var counterFor = map[events.EventType]database.ActivityCounter{
	events.EventSessionOpened: database.CounterSessionsOpened,
	events.EventTaskAdded:     database.CounterTasksAdded,
	events.EventTaskCompleted: database.CounterTasksCompleted,
	events.EventTaskDeleted:   database.CounterTasksDeleted,
	events.EventSessionClosed: database.CounterSessionsClosed,
}

// ActivityRecorder folds task events into per-user activity counters
type ActivityRecorder struct {
	activityRepo database.TaskActivityRepositoryInterface
	logger       *zap.Logger
}

// NewActivityRecorder creates a new activity recorder
func NewActivityRecorder(activityRepo database.TaskActivityRepositoryInterface, logger *zap.Logger) *ActivityRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityRecorder{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ProcessMessage records one event and settles the message. A failed
// first delivery is requeued once; a failed redelivery is dead-lettered.
func (a *ActivityRecorder) ProcessMessage(ctx context.Context, msg events.MessageInterface) error {
	ev := msg.GetEvent()

	counter, ok := counterFor[ev.Type]
	if !ok {
		a.logger.Warn("unknown_event_type",
			zap.String("event_id", ev.ID.String()),
			zap.String("event_type", string(ev.Type)),
		)
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack unknown event: %w", err)
		}
		return nil
	}

	if err := a.activityRepo.Increment(ctx, ev.UserID, counter, ev.OccurredAt); err != nil {
		requeue := !msg.Redelivered()
		if nackErr := msg.Nack(requeue); nackErr != nil {
			a.logger.Error("event_nack_failed", zap.String("event_id", ev.ID.String()), zap.Error(nackErr))
		}
		if requeue {
			return fmt.Errorf("failed to record %s, requeued: %w", ev.Type, err)
		}
		return fmt.Errorf("failed to record %s, dead-lettered: %w", ev.Type, err)
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack event: %w", err)
	}

	a.logger.Debug("event_recorded",
		zap.String("event_id", ev.ID.String()),
		zap.String("event_type", string(ev.Type)),
		zap.String("user_id", ev.UserID.String()),
	)
	return nil
}

// Run processes messages until msgs closes or ctx is done
func (a *ActivityRecorder) Run(ctx context.Context, msgs <-chan *events.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				a.logger.Info("message_channel_closed")
				return
			}
			if err := a.process(ctx, msg); err != nil {
				a.logger.Error("event_processing_failed",
					zap.Error(err),
					zap.String("event_id", msg.GetEvent().ID.String()),
					zap.String("event_type", string(msg.GetEvent().Type)),
				)
			}
		}
	}
}

// process runs ProcessMessage in a span that continues the publisher's trace
func (a *ActivityRecorder) process(ctx context.Context, msg *events.Message) error {
	parent := trace.SpanContextFromContext(msg.Context())
	ctx, span := otel.Tracer(tracerName).Start(trace.ContextWithRemoteSpanContext(ctx, parent), "activity record",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	if err := a.ProcessMessage(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record failed")
		return err
	}
	return nil
}
