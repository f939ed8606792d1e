package domain

import (
	"context"
	"time"
)

// ManagerPort coordinates the single-active-run lifecycle
type ManagerPort interface {
	// Create issues a new pending task. While another task is active it
	// returns a Conflict error; Active exposes the blocking task
	Create(ctx context.Context) (Task, error)

	// Start moves the task to running
	Start(ctx context.Context, id string) error

	// Progress records per-clinic completion on a running task
	Progress(ctx context.Context, id string, current, total int, clinic string) error

	// Complete finishes the task with its artifact reference
	Complete(ctx context.Context, id, result string) error

	// Fail finishes the task with an error message
	Fail(ctx context.Context, id, msg string) error

	// Get returns the task, reading through to spilled state when the
	// process has restarted since the run
	Get(ctx context.Context, id string) (Task, error)

	// Active returns the currently blocking task, if any
	Active() (Task, bool)

	// Cleanup deletes tasks older than age and returns how many
	Cleanup(ctx context.Context, age time.Duration) (int, error)
}
