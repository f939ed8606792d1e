// Package repo persists the registry's config documents
package repo

import (
	"context"
	"encoding/json"

	"slotwatch/internal/modkit/repokit"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/services/registry/domain"
)

const (
	prefix     = "config"
	clinicsKey = "clinics.json"
	rulesKey   = "staff_rules.json"
)

// Documents reads and writes the two registry documents. The local bucket
// is authoritative; the object-store mirror is best effort
type Documents struct {
	local  repokit.Bucket
	mirror repokit.Bucket // nil when the object store is disabled
	log    logger.Logger
}

// NewBuckets binds the repo to the store's buckets under the config prefix
func NewBuckets(s *store.Store) *Documents {
	d := &Documents{local: repokit.Scoped(s.Docs, prefix), log: s.Log}
	if s.Mirror != nil {
		d.mirror = repokit.Scoped(s.Mirror, prefix)
	}
	return d
}

// LoadClinics returns the clinic document in its canonical order. A missing
// document is an empty registry, not an error
func (d *Documents) LoadClinics(ctx context.Context) ([]domain.Clinic, error) {
	var clinics []domain.Clinic
	if err := d.load(ctx, clinicsKey, &clinics); err != nil {
		return nil, err
	}
	return clinics, nil
}

// SaveClinics persists the clinic document
func (d *Documents) SaveClinics(ctx context.Context, clinics []domain.Clinic) error {
	return d.save(ctx, clinicsKey, clinics)
}

// LoadRules returns the rules document keyed by clinic name
func (d *Documents) LoadRules(ctx context.Context) (map[string]domain.Ruleset, error) {
	rules := map[string]domain.Ruleset{}
	if err := d.load(ctx, rulesKey, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// SaveRules persists the rules document
func (d *Documents) SaveRules(ctx context.Context, rules map[string]domain.Ruleset) error {
	return d.save(ctx, rulesKey, rules)
}

func (d *Documents) load(ctx context.Context, key string, out any) error {
	data, err := d.local.Get(ctx, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil
		}
		return perr.Wrapf(err, perr.ErrorCodeStorage, "registry: read %s", key)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "registry: decode %s", key)
	}
	return nil
}

func (d *Documents) save(ctx context.Context, key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "registry: encode %s", key)
	}
	if err := d.local.Put(ctx, key, data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "registry: write %s", key)
	}
	if d.mirror != nil {
		if err := d.mirror.Put(ctx, key, data); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("registry: mirror write failed")
		}
	}
	return nil
}
