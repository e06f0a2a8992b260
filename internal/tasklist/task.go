package tasklist

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the format of Task.CreatedAt (YYYY-MM-DD HH:MM:SS).
const TimestampLayout = "2006-01-02 15:04:05"

// CompletedMarker is appended to the display text of completed tasks
const CompletedMarker = "✅"

// Task is a single to-do entry
type Task struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	CreatedAt string    `json:"created_at"`
	Completed bool      `json:"completed"`
}

// DisplayText returns the text shown to the user, decorated when completed.
func (t Task) DisplayText() string {
	if t.Completed {
		return t.Text + " " + CompletedMarker
	}
	return t.Text
}

// Clock supplies creation timestamps for new tasks.
type Clock interface {
	Now() string
}

// ClockFunc adapts a plain function to the Clock interface
type ClockFunc func() string

// Now implements Clock.
func (f ClockFunc) Now() string {
	return f()
}

// SystemClock formats the current wall time in Location (time.Local when nil).
type SystemClock struct {
	Location *time.Location
}

// Now implements Clock.
func (c SystemClock) Now() string {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc).Format(TimestampLayout)
}
