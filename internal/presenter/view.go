// Package presenter turns task list snapshots into what the to-do screen shows.
package presenter

import (
	"fmt"
	"io"

	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/google/uuid"
)

const (
	// Title is the heading of the to-do screen
	Title = "To Do List"
	// EmptyMessage is shown instead of rows when the list is empty
	EmptyMessage = "No tasks yet! Tap the + button to add one!"
)

// TaskView is one rendered row. Index is the position to use for
// index-addressed operations against the same snapshot version.
type TaskView struct {
	Index       int       `json:"index"`
	ID          uuid.UUID `json:"id"`
	Text        string    `json:"text"`
	DisplayText string    `json:"display_text"`
	CreatedAt   string    `json:"created_at"`
	Caption     string    `json:"caption"`
	Completed   bool      `json:"completed"`
}

// View is the whole screen for one snapshot
type View struct {
	Title        string     `json:"title"`
	Version      uint64     `json:"version"`
	Tasks        []TaskView `json:"tasks"`
	EmptyMessage string     `json:"empty_message,omitempty"`
}

// NewTaskView renders a single task at the given position.
func NewTaskView(index int, task tasklist.Task) TaskView {
	return TaskView{
		Index:       index,
		ID:          task.ID,
		Text:        task.Text,
		DisplayText: task.DisplayText(),
		CreatedAt:   task.CreatedAt,
		Caption:     "Added: " + task.CreatedAt,
		Completed:   task.Completed,
	}
}

// NewView renders a snapshot.
func NewView(snap tasklist.Snapshot) View {
	v := View{
		Title:   Title,
		Version: snap.Version,
		Tasks:   make([]TaskView, 0, len(snap.Tasks)),
	}
	for i, task := range snap.Tasks {
		v.Tasks = append(v.Tasks, NewTaskView(i, task))
	}
	if len(v.Tasks) == 0 {
		v.EmptyMessage = EmptyMessage
	}
	return v
}

// RenderText writes the view as plain text, numbering rows from 1.
func RenderText(w io.Writer, v View) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", v.Title); err != nil {
		return err
	}
	if len(v.Tasks) == 0 {
		_, err := fmt.Fprintf(w, "%s\n", v.EmptyMessage)
		return err
	}
	for _, t := range v.Tasks {
		if _, err := fmt.Fprintf(w, "%2d. %s\n    %s\n", t.Index+1, t.DisplayText, t.Caption); err != nil {
			return err
		}
	}
	return nil
}
