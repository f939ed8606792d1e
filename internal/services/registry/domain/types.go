// Package domain defines the types and interfaces for the registry service
package domain

import (
	"slotwatch/internal/adapters/scrape"
)

// Clinic is one configured tenant. Credentials are never part of this
// record; they resolve through the secrets provider at harvest time
type Clinic struct {
	// Name is the primary key across all stores
	Name string `json:"name"`

	// DisplayName is the office-picker label; empty falls back to Name
	DisplayName string `json:"display_name,omitempty"`

	Backend scrape.Backend `json:"system"`
	URL     string         `json:"url"`
	Enabled bool           `json:"enabled"`

	// CredentialRef keys into the credentials document; empty means Name
	CredentialRef string `json:"credential_ref,omitempty"`
}

// Ref returns the credentials key for the clinic
func (c Clinic) Ref() string {
	if c.CredentialRef != "" {
		return c.CredentialRef
	}
	return c.Name
}

// Category classifies a staff member for threshold selection
type Category string

const (
	CategoryDoctor       Category = "doctor"
	CategoryHygienist    Category = "hygienist"
	CategoryOrthodontist Category = "orthodontist"
	CategoryUnknown      Category = "unknown"
)

// DefaultThreshold applies when a category has no configured threshold
const DefaultThreshold = 30

// Ruleset is a clinic's staff classification and filtering rules
type Ruleset struct {
	Doctors       []string `json:"doctors,omitempty"`
	Hygienists    []string `json:"hygienists,omitempty"`
	Orthodontists []string `json:"orthodontists,omitempty"`
	Disabled      []string `json:"disabled,omitempty"`

	// WebBooking is the allow-list of staff bookable online. A non-empty
	// list restricts the availability tally to its members
	WebBooking []string `json:"web_booking,omitempty"`

	Memos map[string]string `json:"memos,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`

	// Thresholds maps category name to minutes
	Thresholds map[string]int `json:"thresholds,omitempty"`

	// AllStaff is the cached union of every staff name ever observed
	AllStaff []string `json:"all_staff,omitempty"`
}

// Classify picks the staff member's category. Orthodontist membership beats
// doctor beats hygienist
func (r Ruleset) Classify(staff string) Category {
	switch {
	case contains(r.Orthodontists, staff):
		return CategoryOrthodontist
	case contains(r.Doctors, staff):
		return CategoryDoctor
	case contains(r.Hygienists, staff):
		return CategoryHygienist
	}
	return CategoryUnknown
}

// Threshold returns the category's threshold in minutes
func (r Ruleset) Threshold(c Category) int {
	if v, ok := r.Thresholds[string(c)]; ok && v > 0 {
		return v
	}
	return DefaultThreshold
}

// IsDisabled reports whether the staff member is excluded from extraction
func (r Ruleset) IsDisabled(staff string) bool { return contains(r.Disabled, staff) }

// WebBookable reports whether the staff member passes the allow-list.
// An empty list passes nobody through the availability tally; the clinic
// itself is excluded (policy decision applied once, at aggregation)
func (r Ruleset) WebBookable(staff string) bool { return contains(r.WebBooking, staff) }

// Clone returns a Ruleset sharing no backing storage with the receiver.
// The registry hands clones across its port so a concurrent rule edit can
// never alias a ruleset a running harvest already holds
func (r Ruleset) Clone() Ruleset {
	out := r
	out.Doctors = cloneStrings(r.Doctors)
	out.Hygienists = cloneStrings(r.Hygienists)
	out.Orthodontists = cloneStrings(r.Orthodontists)
	out.Disabled = cloneStrings(r.Disabled)
	out.WebBooking = cloneStrings(r.WebBooking)
	out.Memos = cloneStringMap(r.Memos)
	out.Tags = cloneStringMap(r.Tags)
	out.AllStaff = cloneStrings(r.AllStaff)
	if r.Thresholds != nil {
		out.Thresholds = make(map[string]int, len(r.Thresholds))
		for k, v := range r.Thresholds {
			out.Thresholds[k] = v
		}
	}
	return out
}

func cloneStrings(xs []string) []string {
	if xs == nil {
		return nil
	}
	out := make([]string, len(xs))
	copy(out, xs)
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
