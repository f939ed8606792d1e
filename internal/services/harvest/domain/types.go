// Package domain defines the types and interfaces for the harvest service
package domain

import (
	"time"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/core/slots"
)

// ClinicResult is one clinic's aggregated outcome inside a run artifact
type ClinicResult struct {
	Clinic      string           `json:"clinic"`
	System      scrape.Backend   `json:"system"`
	Available   bool             `json:"result"`
	TotalBlocks int              `json:"total_30min_blocks"`
	Details     []slots.Analysis `json:"details"`
}

// Summary is the artifact's run-level tally
type Summary struct {
	TotalClinics     int `json:"total_clinics"`
	WithAvailability int `json:"clinics_with_availability"`
}

// Artifact is the structured run output. Immutable after write
type Artifact struct {
	CheckDate string         `json:"check_date"`
	CheckedAt time.Time      `json:"checked_at"`
	Results   []ClinicResult `json:"results"`
	Summary   Summary        `json:"summary"`
}

// Tally recomputes the summary from the results
func (a *Artifact) Tally() {
	a.Summary = Summary{TotalClinics: len(a.Results)}
	for _, r := range a.Results {
		if r.Available {
			a.Summary.WithAvailability++
		}
	}
}

// Meta identifies one persisted artifact without loading it
type Meta struct {
	Key       string `json:"key"`
	CheckDate string `json:"check_date"`
	RunDate   string `json:"run_date"`
	RunTime   string `json:"run_time"`
}

// SortKey orders artifact listings, always descending
type SortKey string

const (
	SortByCheckDate SortKey = "check_date"
	SortByRunDate   SortKey = "run_date"
	SortByRunTime   SortKey = "run_time"
)

// Valid reports whether k is a declared sort key
func (k SortKey) Valid() bool {
	return k == SortByCheckDate || k == SortByRunDate || k == SortByRunTime
}
