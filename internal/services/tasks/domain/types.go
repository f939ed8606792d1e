// Package domain defines the types and interfaces for the tasks service
package domain

import "time"

// Status is a task lifecycle state
type Status string

const (
	// StatusPending is the state between create and worker start
	StatusPending Status = "pending"

	// StatusRunning is the state while the harvest worker holds the task
	StatusRunning Status = "running"

	// StatusCompleted is the terminal success state
	StatusCompleted Status = "completed"

	// StatusFailed is the terminal failure state
	StatusFailed Status = "failed"
)

// rank orders states so transitions can only move forward
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

// Terminal reports whether s admits no further transitions
func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Active reports whether s blocks a new run
func (s Status) Active() bool { return s == StatusPending || s == StatusRunning }

// CanAdvance reports whether the transition s → to is legal
func (s Status) CanAdvance(to Status) bool {
	if s.Terminal() {
		return false
	}
	return to.rank() > s.rank() || (s == StatusRunning && to == StatusRunning)
}

// Progress is the per-clinic completion counter of a running task
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Clinic  string `json:"current_clinic,omitempty"`
}

// Task is the durable record of one harvest run
type Task struct {
	ID          string     `json:"task_id"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Progress    Progress   `json:"progress"`
	Error       string     `json:"error,omitempty"`

	// Result references the run artifact key once the task completes
	Result string `json:"result,omitempty"`
}

// Elapsed is the task's age against now
func (t Task) Elapsed(now time.Time) time.Duration { return now.Sub(t.StartedAt) }
