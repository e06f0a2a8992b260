package events

import (
	"time"

	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventSessionOpened EventType = "session_opened"
	EventTaskAdded     EventType = "task_added"
	EventTaskCompleted EventType = "task_completed"
	EventTaskDeleted   EventType = "task_deleted"
	EventSessionClosed EventType = "session_closed"
)

// Event is a task-list notification sent to the activity worker.
// It never carries task text.
type Event struct {
	ID         uuid.UUID  `json:"id"`
	Type       EventType  `json:"type"`
	UserID     uuid.UUID  `json:"user_id"`
	SessionID  uuid.UUID  `json:"session_id"`
	TaskID     *uuid.UUID `json:"task_id,omitempty"`
	Index      *int       `json:"index,omitempty"`
	Version    uint64     `json:"version"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewEvent creates a session-level event
func NewEvent(eventType EventType, userID, sessionID uuid.UUID) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
	}
}

// FromChange converts a store notification into an event
func FromChange(userID, sessionID uuid.UUID, c tasklist.Change) *Event {
	ev := NewEvent(changeEventType(c.Kind), userID, sessionID)
	taskID := c.Task.ID
	index := c.Index
	ev.TaskID = &taskID
	ev.Index = &index
	ev.Version = c.Version
	return ev
}

func changeEventType(kind tasklist.ChangeKind) EventType {
	switch kind {
	case tasklist.ChangeAdded:
		return EventTaskAdded
	case tasklist.ChangeCompleted:
		return EventTaskCompleted
	case tasklist.ChangeDeleted:
		return EventTaskDeleted
	default:
		return EventType("task_" + string(kind))
	}
}

// IsKnown reports whether the worker understands this event type
func (t EventType) IsKnown() bool {
	switch t {
	case EventSessionOpened, EventTaskAdded, EventTaskCompleted, EventTaskDeleted, EventSessionClosed:
		return true
	default:
		return false
	}
}
