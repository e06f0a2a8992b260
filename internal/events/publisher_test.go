package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/google/uuid"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestAsyncPublisher_ForwardsInOrder(t *testing.T) {
	t.Parallel()

	rec := &recordingPublisher{}
	p := NewAsyncPublisher(rec, 8, nil)

	userID, sessionID := uuid.New(), uuid.New()
	for i := 0; i < 3; i++ {
		ev := NewEvent(EventTaskAdded, userID, sessionID)
		ev.Version = uint64(i + 1)
		if err := p.Publish(context.Background(), ev); err != nil {
			t.Fatalf("Unexpected publish error: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = p.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if rec.count() != 3 {
		t.Fatalf("Expected 3 forwarded events, got %d", rec.count())
	}
	for i, ev := range rec.events {
		if ev.Version != uint64(i+1) {
			t.Errorf("Expected version %d at position %d, got %d", i+1, i, ev.Version)
		}
	}
}

func TestAsyncPublisher_DropsWhenFull(t *testing.T) {
	t.Parallel()

	p := NewAsyncPublisher(&recordingPublisher{}, 1, nil)
	ev := NewEvent(EventSessionOpened, uuid.New(), uuid.New())

	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Unexpected error on first publish: %v", err)
	}
	if err := p.Publish(context.Background(), ev); !errors.Is(err, ErrPublishBufferFull) {
		t.Errorf("Expected ErrPublishBufferFull, got %v", err)
	}
}

func TestAsyncPublisher_RunDrainsOnCancel(t *testing.T) {
	t.Parallel()

	rec := &recordingPublisher{err: errors.New("broker down")}
	p := NewAsyncPublisher(rec, 4, nil)
	_ = p.Publish(context.Background(), NewEvent(EventSessionClosed, uuid.New(), uuid.New()))
	_ = p.Publish(context.Background(), NewEvent(EventSessionClosed, uuid.New(), uuid.New()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx); err != nil {
		t.Errorf("Expected nil from Run, got %v", err)
	}
	if rec.count() != 2 {
		t.Errorf("Expected 2 drained events, got %d", rec.count())
	}
}

func TestFromChange(t *testing.T) {
	t.Parallel()

	userID, sessionID, taskID := uuid.New(), uuid.New(), uuid.New()
	tests := []struct {
		kind tasklist.ChangeKind
		want EventType
	}{
		{tasklist.ChangeAdded, EventTaskAdded},
		{tasklist.ChangeCompleted, EventTaskCompleted},
		{tasklist.ChangeDeleted, EventTaskDeleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			t.Parallel()
			ev := FromChange(userID, sessionID, tasklist.Change{
				Kind:    tt.kind,
				Task:    tasklist.Task{ID: taskID, Text: "secret"},
				Index:   2,
				Version: 7,
			})
			if ev.Type != tt.want {
				t.Errorf("Expected type %s, got %s", tt.want, ev.Type)
			}
			if ev.TaskID == nil || *ev.TaskID != taskID {
				t.Errorf("Expected task id %s, got %v", taskID, ev.TaskID)
			}
			if ev.Index == nil || *ev.Index != 2 {
				t.Errorf("Expected index 2, got %v", ev.Index)
			}
			if ev.Version != 7 || ev.UserID != userID || ev.SessionID != sessionID {
				t.Errorf("Unexpected event identity: %+v", ev)
			}
			if !ev.Type.IsKnown() {
				t.Errorf("Expected %s to be a known type", ev.Type)
			}
		})
	}
}

func TestEventType_IsKnown(t *testing.T) {
	t.Parallel()

	if EventType("task_renamed").IsKnown() {
		t.Error("Expected task_renamed to be unknown")
	}
	if !EventSessionOpened.IsKnown() {
		t.Error("Expected session_opened to be known")
	}
}
