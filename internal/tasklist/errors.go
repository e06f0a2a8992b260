package tasklist

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTaskText is returned when a submitted task is blank after trimming
	ErrEmptyTaskText = errors.New("task text cannot be empty")
	// ErrIndexOutOfRange is matched by every *IndexError
	ErrIndexOutOfRange = errors.New("task index out of range")
	// ErrTaskNotFound is returned when no task has the requested ID
	ErrTaskNotFound = errors.New("task not found")
)

// IndexError reports an index outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("task index %d out of range [0, %d)", e.Index, e.Len)
}

// Is lets errors.Is(err, ErrIndexOutOfRange) match.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
