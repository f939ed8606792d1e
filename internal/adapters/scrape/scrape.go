// Package scrape defines the extraction protocol both reservation back-ends
// implement, plus the shared page primitives (batched DOM snapshots, network
// quiescence) the adapters are built from.
//
// Design choices:
// - One tab context per clinic; the adapter never sees the pool.
// - DOM reads are single Evaluate calls returning JSON snapshots, so the
//   inner loops never cross the CDP boundary per cell
// - A failing step surfaces as an error; the scheduler turns it into an
//   empty observation map, never a run abort
package scrape

import (
	"context"
	"sort"
)

// Backend tags which reservation system a clinic runs
type Backend string

const (
	// BackendLegacy is the frame-nested table system (dent-sys)
	BackendLegacy Backend = "legacy"

	// BackendSPA is the single-page calendar grid (Stransa)
	BackendSPA Backend = "spa"
)

// Valid reports whether b is one of the two declared back-ends
func (b Backend) Valid() bool { return b == BackendLegacy || b == BackendSPA }

// Credentials is a clinic login pair
type Credentials struct {
	ID       string
	Password string
}

// Target is everything an adapter needs to scrape one clinic
type Target struct {
	// Name is the clinic's primary key across all stores
	Name string

	// DisplayName is the office-picker label on the SPA back-end;
	// empty falls back to Name
	DisplayName string

	// URL is the login entry point
	URL string

	Backend Backend
	Login   Credentials

	// Disabled lists staff excluded by the clinic's ruleset
	Disabled []string

	// Exclude lists header substring patterns dropped on the legacy
	// back-end (UI chrome columns)
	Exclude []string

	// Interval is the default slot spacing in minutes when detection
	// has nothing to work with (legacy grids vary 5/10)
	Interval int

	// NextDayTokens are the labels of the next-day control, in order
	NextDayTokens []string
}

// Display returns the office-picker label
func (t Target) Display() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Name
}

// Observations maps staff name to minute-of-day free slots
type Observations map[string][]int

// Add records a slot for staff. Duplicates are tolerated here and removed
// by Normalize, keeping anchor parsing idempotent
func (o Observations) Add(staff string, minute int) {
	o[staff] = append(o[staff], minute)
}

// Normalize sorts each staff's slots ascending and drops duplicates
func (o Observations) Normalize() {
	for staff, times := range o {
		sort.Ints(times)
		dedup := times[:0]
		for i, t := range times {
			if i == 0 || t != times[i-1] {
				dedup = append(dedup, t)
			}
		}
		o[staff] = dedup
	}
}

// Adapter is the three-step protocol. ctx is an isolated tab context; steps
// are strictly ordered per clinic
type Adapter interface {
	Backend() Backend

	// Login navigates to the clinic URL and authenticates
	Login(ctx context.Context, target Target) error

	// AdvanceToTomorrow moves the grid one day forward. An error here is
	// a warning, not a failure: the caller proceeds with today's grid
	AdvanceToTomorrow(ctx context.Context, target Target) error

	// Extract reads the schedule grid into per-staff slot lists
	Extract(ctx context.Context, target Target) (Observations, error)
}
