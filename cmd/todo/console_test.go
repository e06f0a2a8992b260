package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/benvon/cupid-code/internal/presenter"
	"github.com/benvon/cupid-code/internal/tasklist"
	"go.uber.org/zap"
)

func newTestConsole() (*console, *tasklist.Store, *bytes.Buffer) {
	store := tasklist.New(tasklist.WithClock(tasklist.ClockFunc(func() string {
		return "2024-03-20 15:04:05"
	})))
	out := &bytes.Buffer{}
	return newConsole(store, out, zap.NewNop()), store, out
}

func TestConsoleRun(t *testing.T) {
	t.Parallel()

	c, store, out := newTestConsole()
	input := strings.Join([]string{
		"add Buy milk",
		"add   Walk the dog  ",
		"done 1",
		"rm 2",
		"add",
		"done 7",
		"rm x",
		"bogus",
		"quit",
		"add never reached",
	}, "\n")

	if err := c.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	tasks := store.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("Expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Text != "Buy milk" || !tasks[0].Completed {
		t.Errorf("Expected completed \"Buy milk\", got %+v", tasks[0])
	}
	if store.Version() != 4 {
		t.Errorf("Expected version 4, got %d", store.Version())
	}

	got := out.String()
	for _, want := range []string{
		presenter.EmptyMessage,
		" 2. Walk the dog",
		"Buy milk ✅",
		"Error: " + tasklist.ErrEmptyTaskText.Error(),
		"Error: no task 7 (list has 1)",
		`"x" is not a task number`,
		`unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
	if strings.Contains(got, "never reached") {
		t.Error("Expected input after quit to be ignored")
	}
}

func TestConsoleRun_EndOfInput(t *testing.T) {
	t.Parallel()

	c, store, _ := newTestConsole()
	if err := c.Run(context.Background(), strings.NewReader("add Only one")); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("Expected 1 task, got %d", store.Len())
	}
}

func TestConsoleRun_Cancelled(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestConsole()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a reader that never returns data
	blocked := &blockingReader{release: make(chan struct{})}
	defer close(blocked.release)

	if err := c.Run(ctx, blocked); err != nil {
		t.Fatalf("Expected nil error on cancel, got %v", err)
	}
}

func TestConsoleHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantErr error
		wantMsg string
	}{
		{name: "blank line is ignored", line: "   "},
		{name: "help", line: "help"},
		{name: "ls", line: "ls"},
		{name: "quit", line: "quit", wantErr: errQuit},
		{name: "exit alias", line: "EXIT", wantErr: errQuit},
		{name: "empty add", line: "add   ", wantErr: tasklist.ErrEmptyTaskText},
		{name: "done on empty list", line: "done 1", wantErr: tasklist.ErrIndexOutOfRange, wantMsg: "no task 1 (list has 0)"},
		{name: "rm zero", line: "rm 0", wantErr: tasklist.ErrIndexOutOfRange, wantMsg: "no task 0 (list has 0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _, _ := newTestConsole()
			err := c.handle(tt.line)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && (err == nil || err.Error() != tt.wantMsg) {
				t.Errorf("Expected message %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestParsePosition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1", want: 0},
		{in: " 3 ", want: 2},
		{in: "0", want: -1},
		{in: "", wantErr: true},
		{in: "two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parsePosition(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

type blockingReader struct {
	release chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.release
	return 0, errors.New("closed")
}
