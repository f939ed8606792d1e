package domain

import (
	"context"

	"slotwatch/internal/adapters/scrape"
)

// RunnerPort launches harvest runs
type RunnerPort interface {
	// Launch creates a task and starts one run in the background. system
	// narrows the run to one back-end; empty runs both. While a run is
	// active it returns a Conflict error
	Launch(ctx context.Context, system scrape.Backend) (taskID string, err error)

	// RunOnce executes a full harvest synchronously and returns the
	// artifact key. Used by the one-shot CLI
	RunOnce(ctx context.Context, system scrape.Backend) (string, Artifact, error)
}

// ResultsPort reads persisted run artifacts
type ResultsPort interface {
	// Latest returns the most recent artifact by run stamp
	Latest(ctx context.Context) (Artifact, Meta, error)

	// List returns artifact metadata descending by the sort key
	List(ctx context.Context, key SortKey) ([]Meta, error)

	// ByDate returns the most recent artifact for a check date (YYYY-MM-DD)
	ByDate(ctx context.Context, date string) (Artifact, Meta, error)

	// Recalculate rebuilds the latest artifact's blocks and ranges from
	// its raw slot times under a different threshold. Pure recomputation;
	// nothing is persisted
	Recalculate(ctx context.Context, thresholdMinutes int) (Artifact, error)
}
