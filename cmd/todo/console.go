package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/benvon/cupid-code/internal/presenter"
	"github.com/benvon/cupid-code/internal/tasklist"
	"go.uber.org/zap"
)

const prompt = "> "

const helpText = `Commands:
  add <text>   add a task
  done <n>     mark task n as completed
  rm <n>       delete task n
  ls           show the list
  help         show this help
  quit         leave (tasks are not saved)
`

var errQuit = errors.New("quit")

// console drives a task list from line-oriented input. Every change
// notification from the store re-renders the list to out.
type console struct {
	store  *tasklist.Store
	out    io.Writer
	logger *zap.Logger
}

func newConsole(store *tasklist.Store, out io.Writer, logger *zap.Logger) *console {
	return &console{store: store, out: out, logger: logger}
}

// Run reads commands until quit, end of input or ctx is done.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := c.store.OnChange(func(change tasklist.Change) {
		c.logger.Debug("task_list_changed",
			zap.String("kind", string(change.Kind)),
			zap.Int("index", change.Index),
			zap.Uint64("version", change.Version),
		)
		c.render()
	})
	defer unsubscribe()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	c.render()
	c.printf("%s", prompt)
	for {
		select {
		case <-ctx.Done():
			c.printf("\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if err := c.handle(line); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				c.printf("Error: %s\n", err)
			}
			c.printf("%s", prompt)
		}
	}
}

// handle executes one command line.
func (c *console) handle(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	verb, rest, _ := strings.Cut(line, " ")

	switch strings.ToLower(verb) {
	case "add":
		_, err := c.store.AddTask(rest)
		return err
	case "done":
		n, err := parsePosition(rest)
		if err != nil {
			return err
		}
		return positionErr(c.store.CompleteTask(n))
	case "rm":
		n, err := parsePosition(rest)
		if err != nil {
			return err
		}
		return positionErr(c.store.DeleteTask(n))
	case "ls":
		c.render()
		return nil
	case "help":
		c.printf("%s", helpText)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", verb)
	}
}

func (c *console) render() {
	if err := presenter.RenderText(c.out, presenter.NewView(c.store.Snapshot())); err != nil {
		c.logger.Warn("render_failed", zap.Error(err))
	}
}

func (c *console) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(c.out, format, args...); err != nil {
		c.logger.Warn("write_failed", zap.Error(err))
	}
}

// positionError reports a row number that is not on the list, counting from 1
type positionError struct {
	n     int
	count int
}

func (e *positionError) Error() string {
	return fmt.Sprintf("no task %d (list has %d)", e.n, e.count)
}

func (e *positionError) Unwrap() error { return tasklist.ErrIndexOutOfRange }

// positionErr rewrites store index errors in terms of the numbers shown on screen.
func positionErr(err error) error {
	var idxErr *tasklist.IndexError
	if errors.As(err, &idxErr) {
		return &positionError{n: idxErr.Index + 1, count: idxErr.Len}
	}
	return err
}

// parsePosition converts a 1-based row number to a store index.
func parsePosition(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("a task number is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a task number", s)
	}
	return n - 1, nil
}
