package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskActivity aggregates a user's to-do events. Counters only; task text is
// never stored.
type TaskActivity struct {
	UserID         uuid.UUID  `json:"user_id"`
	SessionsOpened int64      `json:"sessions_opened"`
	TasksAdded     int64      `json:"tasks_added"`
	TasksCompleted int64      `json:"tasks_completed"`
	TasksDeleted   int64      `json:"tasks_deleted"`
	SessionsClosed int64      `json:"sessions_closed"`
	LastEventAt    *time.Time `json:"last_event_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
