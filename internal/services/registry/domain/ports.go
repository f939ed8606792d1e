package domain

import (
	"context"

	"slotwatch/internal/adapters/scrape"
)

// RegistryPort is the read surface the harvest engine consumes
type RegistryPort interface {
	// Clinics returns every clinic in canonical (document) order
	Clinics(ctx context.Context) ([]Clinic, error)

	// Clinic returns one clinic by name
	Clinic(ctx context.Context, name string) (Clinic, error)

	// Rules returns the clinic's ruleset; ok is false when none exists
	Rules(ctx context.Context, clinic string) (Ruleset, bool, error)

	// Credentials resolves the clinic's login through the secrets provider
	Credentials(ctx context.Context, c Clinic) (scrape.Credentials, error)

	// Order returns the canonical clinic-name sequence for result sorting
	Order(ctx context.Context) ([]string, error)

	// Reload drops the document caches
	Reload(ctx context.Context)
}

// AdminPort is the mutation surface behind the console routes
type AdminPort interface {
	UpsertClinic(ctx context.Context, c Clinic) error
	EnableClinic(ctx context.Context, name string, enabled bool) (Clinic, error)

	// AssignCategory moves staff into the named category set, removing it
	// from the other role sets
	AssignCategory(ctx context.Context, clinic, staff string, cat Category) (Ruleset, error)

	ToggleDisabled(ctx context.Context, clinic, staff string) (Ruleset, error)
	ToggleWebBooking(ctx context.Context, clinic, staff string) (Ruleset, error)
	SetMemo(ctx context.Context, clinic, staff, memo string) (Ruleset, error)
	SetTag(ctx context.Context, clinic, staff, tag string) (Ruleset, error)
	SetThreshold(ctx context.Context, clinic string, cat Category, minutes int) (Ruleset, error)

	// SyncStaff merges observed staff names into the clinic's all_staff
	// snapshot. Additive and idempotent; returns how many were new
	SyncStaff(ctx context.Context, clinic string, staff []string) (int, error)
}
