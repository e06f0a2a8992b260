package presenter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/benvon/cupid-code/internal/tasklist"
	"github.com/google/uuid"
)

func TestNewView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		snap     tasklist.Snapshot
		validate func(*testing.T, View)
	}{
		{
			name: "empty list shows placeholder",
			snap: tasklist.Snapshot{Version: 0},
			validate: func(t *testing.T, v View) {
				if v.EmptyMessage != EmptyMessage {
					t.Errorf("Expected empty message %q, got %q", EmptyMessage, v.EmptyMessage)
				}
				if v.Tasks == nil || len(v.Tasks) != 0 {
					t.Errorf("Expected non-nil empty task slice, got %#v", v.Tasks)
				}
			},
		},
		{
			name: "rows keep order and index",
			snap: tasklist.Snapshot{
				Version: 3,
				Tasks: []tasklist.Task{
					{ID: uuid.New(), Text: "A", CreatedAt: "2024-03-20 15:04:05", Completed: true},
					{ID: uuid.New(), Text: "B", CreatedAt: "2024-03-20 15:05:00"},
				},
			},
			validate: func(t *testing.T, v View) {
				if v.Version != 3 {
					t.Errorf("Expected version 3, got %d", v.Version)
				}
				if v.EmptyMessage != "" {
					t.Errorf("Expected no empty message, got %q", v.EmptyMessage)
				}
				if len(v.Tasks) != 2 {
					t.Fatalf("Expected 2 rows, got %d", len(v.Tasks))
				}
				if v.Tasks[0].Index != 0 || v.Tasks[1].Index != 1 {
					t.Errorf("Expected indexes 0 and 1, got %d and %d", v.Tasks[0].Index, v.Tasks[1].Index)
				}
				if v.Tasks[0].DisplayText != "A ✅" {
					t.Errorf("Expected decorated display text, got %q", v.Tasks[0].DisplayText)
				}
				if v.Tasks[1].Caption != "Added: 2024-03-20 15:05:00" {
					t.Errorf("Unexpected caption %q", v.Tasks[1].Caption)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, NewView(tt.snap))
		})
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	var empty bytes.Buffer
	if err := RenderText(&empty, NewView(tasklist.Snapshot{})); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(empty.String(), EmptyMessage) {
		t.Errorf("Expected placeholder in output, got %q", empty.String())
	}

	var full bytes.Buffer
	view := NewView(tasklist.Snapshot{Tasks: []tasklist.Task{
		{Text: "Buy milk", CreatedAt: "2024-03-20 15:04:05"},
	}})
	if err := RenderText(&full, view); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := full.String()
	for _, want := range []string{Title, " 1. Buy milk", "Added: 2024-03-20 15:04:05"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got %q", want, out)
		}
	}
}
