package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/cupid-code/internal/models"
	"github.com/google/uuid"
)

// ActivityCounter names a task_activity column
type ActivityCounter string

const (
	CounterSessionsOpened ActivityCounter = "sessions_opened"
	CounterTasksAdded     ActivityCounter = "tasks_added"
	CounterTasksCompleted ActivityCounter = "tasks_completed"
	CounterTasksDeleted   ActivityCounter = "tasks_deleted"
	CounterSessionsClosed ActivityCounter = "sessions_closed"
)

// column returns the column name for known counters only, so it is safe to
// splice into SQL.
func (c ActivityCounter) column() (string, bool) {
	switch c {
	case CounterSessionsOpened, CounterTasksAdded, CounterTasksCompleted, CounterTasksDeleted, CounterSessionsClosed:
		return string(c), true
	default:
		return "", false
	}
}

// TaskActivityRepository handles task activity counters
type TaskActivityRepository struct {
	db *DB
}

// NewTaskActivityRepository creates a new task activity repository
func NewTaskActivityRepository(db *DB) *TaskActivityRepository {
	return &TaskActivityRepository{db: db}
}

// Increment adds one to the counter and moves last_event_at forward
func (r *TaskActivityRepository) Increment(ctx context.Context, userID uuid.UUID, counter ActivityCounter, at time.Time) error {
	col, ok := counter.column()
	if !ok {
		return fmt.Errorf("unknown activity counter %q", counter)
	}

	query := fmt.Sprintf(`
		INSERT INTO task_activity (user_id, %[1]s, last_event_at, created_at, updated_at)
		VALUES ($1, 1, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			%[1]s = task_activity.%[1]s + 1,
			last_event_at = GREATEST(task_activity.last_event_at, EXCLUDED.last_event_at),
			updated_at = EXCLUDED.updated_at
	`, col)

	if _, err := r.db.ExecContext(ctx, query, userID, at, time.Now()); err != nil {
		return fmt.Errorf("failed to increment %s: %w", col, err)
	}
	return nil
}

// GetByUserID returns the user's counters. Users without activity get zeros.
func (r *TaskActivityRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.TaskActivity, error) {
	a := &models.TaskActivity{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		SELECT sessions_opened, tasks_added, tasks_completed, tasks_deleted, sessions_closed,
		       last_event_at, created_at, updated_at
		FROM task_activity WHERE user_id = $1
	`, userID).Scan(
		&a.SessionsOpened,
		&a.TasksAdded,
		&a.TasksCompleted,
		&a.TasksDeleted,
		&a.SessionsClosed,
		&a.LastEventAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task activity: %w", err)
	}
	return a, nil
}
