// Package service provides the registry service implementation
package service

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"slotwatch/internal/adapters/scrape"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/services/registry/domain"
	"slotwatch/internal/services/registry/repo"
)

// Registry implements domain.RegistryPort and domain.AdminPort over the
// config documents, with a read-through cache invalidated by Reload and by
// every mutation
type Registry struct {
	mu      sync.Mutex
	storage *repo.Documents
	creds   secrets.Provider
	log     logger.Logger

	clinics []domain.Clinic
	rules   map[string]domain.Ruleset
	loaded  bool
}

// New constructs the registry with a required repo and secrets provider
func New(storage *repo.Documents, creds secrets.Provider, log logger.Logger) *Registry {
	return &Registry{storage: storage, creds: creds, log: log}
}

func (r *Registry) ensure(ctx context.Context) error {
	if r.loaded {
		return nil
	}
	clinics, err := r.storage.LoadClinics(ctx)
	if err != nil {
		return err
	}
	rules, err := r.storage.LoadRules(ctx)
	if err != nil {
		return err
	}
	r.clinics = clinics
	r.rules = rules
	r.loaded = true
	return nil
}

// Reload implements domain.RegistryPort
func (r *Registry) Reload(context.Context) {
	r.mu.Lock()
	r.loaded = false
	r.mu.Unlock()
}

// Clinics implements domain.RegistryPort
func (r *Registry) Clinics(ctx context.Context) ([]domain.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Clinic, len(r.clinics))
	copy(out, r.clinics)
	return out, nil
}

// Clinic implements domain.RegistryPort
func (r *Registry) Clinic(ctx context.Context, name string) (domain.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return domain.Clinic{}, err
	}
	for _, c := range r.clinics {
		if c.Name == name {
			return c, nil
		}
	}
	return domain.Clinic{}, perr.NotFoundf("clinic %s", name)
}

// Rules implements domain.RegistryPort
func (r *Registry) Rules(ctx context.Context, clinic string) (domain.Ruleset, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return domain.Ruleset{}, false, err
	}
	rs, ok := r.rules[clinic]
	// clone: a concurrent rule edit must never mutate a ruleset a
	// running harvest already holds
	return rs.Clone(), ok, nil
}

// Order implements domain.RegistryPort: the clinic document order is the
// canonical result ordering
func (r *Registry) Order(ctx context.Context) ([]string, error) {
	clinics, err := r.Clinics(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(clinics))
	for _, c := range clinics {
		names = append(names, c.Name)
	}
	return names, nil
}

// credsDoc is the credentials document wire shape
type credsDoc map[string]struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

// Credentials implements domain.RegistryPort. The document is re-read on
// every call so secret rotation never needs a restart
func (r *Registry) Credentials(ctx context.Context, c domain.Clinic) (scrape.Credentials, error) {
	data, err := r.creds.Load(ctx)
	if err != nil {
		return scrape.Credentials{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "credentials for %s", c.Name)
	}
	var doc credsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return scrape.Credentials{}, perr.Wrapf(err, perr.ErrorCodeStorage, "credentials document")
	}
	entry, ok := doc[c.Ref()]
	if !ok {
		return scrape.Credentials{}, perr.NotFoundf("credentials for %s", c.Ref())
	}
	return scrape.Credentials{ID: entry.ID, Password: entry.Password}, nil
}

// UpsertClinic implements domain.AdminPort. New clinics append, preserving
// the canonical order of existing ones
func (r *Registry) UpsertClinic(ctx context.Context, c domain.Clinic) error {
	if c.Name == "" {
		return perr.InvalidArgf("clinic name is required")
	}
	if !c.Backend.Valid() {
		return perr.InvalidArgf("clinic %s: unknown system %q", c.Name, c.Backend)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return err
	}

	replaced := false
	for i := range r.clinics {
		if r.clinics[i].Name == c.Name {
			r.clinics[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		r.clinics = append(r.clinics, c)
	}
	return r.storage.SaveClinics(ctx, r.clinics)
}

// EnableClinic implements domain.AdminPort
func (r *Registry) EnableClinic(ctx context.Context, name string, enabled bool) (domain.Clinic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return domain.Clinic{}, err
	}
	for i := range r.clinics {
		if r.clinics[i].Name == name {
			r.clinics[i].Enabled = enabled
			return r.clinics[i], r.storage.SaveClinics(ctx, r.clinics)
		}
	}
	return domain.Clinic{}, perr.NotFoundf("clinic %s", name)
}

// mutateRules applies one rule edit and persists the document
func (r *Registry) mutateRules(ctx context.Context, clinic string, apply func(*domain.Ruleset)) (domain.Ruleset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensure(ctx); err != nil {
		return domain.Ruleset{}, err
	}
	// edit a clone so the cached entry stays untouched until the save
	// lands, then hand the caller another clone
	rs := r.rules[clinic].Clone()
	apply(&rs)
	next := make(map[string]domain.Ruleset, len(r.rules)+1)
	for k, v := range r.rules {
		next[k] = v
	}
	next[clinic] = rs
	if err := r.storage.SaveRules(ctx, next); err != nil {
		return domain.Ruleset{}, err
	}
	r.rules = next
	return rs.Clone(), nil
}

// AssignCategory implements domain.AdminPort
func (r *Registry) AssignCategory(ctx context.Context, clinic, staff string, cat domain.Category) (domain.Ruleset, error) {
	switch cat {
	case domain.CategoryDoctor, domain.CategoryHygienist, domain.CategoryOrthodontist, domain.CategoryUnknown:
	default:
		return domain.Ruleset{}, perr.InvalidArgf("unknown category %q", cat)
	}
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		rs.Doctors = remove(rs.Doctors, staff)
		rs.Hygienists = remove(rs.Hygienists, staff)
		rs.Orthodontists = remove(rs.Orthodontists, staff)
		switch cat {
		case domain.CategoryDoctor:
			rs.Doctors = append(rs.Doctors, staff)
		case domain.CategoryHygienist:
			rs.Hygienists = append(rs.Hygienists, staff)
		case domain.CategoryOrthodontist:
			rs.Orthodontists = append(rs.Orthodontists, staff)
		}
	})
}

// ToggleDisabled implements domain.AdminPort
func (r *Registry) ToggleDisabled(ctx context.Context, clinic, staff string) (domain.Ruleset, error) {
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		rs.Disabled = toggle(rs.Disabled, staff)
	})
}

// ToggleWebBooking implements domain.AdminPort
func (r *Registry) ToggleWebBooking(ctx context.Context, clinic, staff string) (domain.Ruleset, error) {
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		rs.WebBooking = toggle(rs.WebBooking, staff)
	})
}

// SetMemo implements domain.AdminPort. An empty memo deletes the entry
func (r *Registry) SetMemo(ctx context.Context, clinic, staff, memo string) (domain.Ruleset, error) {
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		rs.Memos = setOrDelete(rs.Memos, staff, memo)
	})
}

// SetTag implements domain.AdminPort. An empty tag deletes the entry
func (r *Registry) SetTag(ctx context.Context, clinic, staff, tag string) (domain.Ruleset, error) {
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		rs.Tags = setOrDelete(rs.Tags, staff, tag)
	})
}

// SetThreshold implements domain.AdminPort
func (r *Registry) SetThreshold(ctx context.Context, clinic string, cat domain.Category, minutes int) (domain.Ruleset, error) {
	if minutes <= 0 {
		return domain.Ruleset{}, perr.InvalidArgf("threshold must be positive, got %d", minutes)
	}
	return r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		if rs.Thresholds == nil {
			rs.Thresholds = map[string]int{}
		}
		rs.Thresholds[string(cat)] = minutes
	})
}

// SyncStaff implements domain.AdminPort
func (r *Registry) SyncStaff(ctx context.Context, clinic string, staff []string) (int, error) {
	added := 0
	_, err := r.mutateRules(ctx, clinic, func(rs *domain.Ruleset) {
		known := map[string]bool{}
		for _, s := range rs.AllStaff {
			known[s] = true
		}
		for _, s := range staff {
			if s == "" || known[s] {
				continue
			}
			known[s] = true
			rs.AllStaff = append(rs.AllStaff, s)
			added++
		}
		sort.Strings(rs.AllStaff)
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		r.log.Info().Str("clinic", clinic).Int("added", added).Msg("registry: staff synced")
	}
	return added, nil
}

// remove allocates its result; compacting xs in place would corrupt
// slices already handed across the port
func remove(xs []string, s string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}

func toggle(xs []string, s string) []string {
	for _, x := range xs {
		if x == s {
			return remove(xs, s)
		}
	}
	return append(xs, s)
}

func setOrDelete(m map[string]string, k, v string) map[string]string {
	if v == "" {
		delete(m, k)
		return m
	}
	if m == nil {
		m = map[string]string{}
	}
	m[k] = v
	return m
}
