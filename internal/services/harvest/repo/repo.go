// Package repo persists run artifacts through the document buckets
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"slotwatch/internal/modkit/repokit"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/services/harvest/domain"
)

const prefix = "results"

// nameRe parses artifact keys: slot_check_<check>_<runDate>_<runTime>.json
var nameRe = regexp.MustCompile(`^slot_check_(\d{8})_(\d{8})_(\d{6})\.json$`)

// Artifacts reads and writes run artifacts. The local bucket is
// authoritative; the object-store mirror is best effort
type Artifacts struct {
	local  repokit.Bucket
	mirror repokit.Bucket // nil when the object store is disabled
	log    logger.Logger
}

// NewBuckets binds the repo to the store's buckets under the results prefix
func NewBuckets(s *store.Store) *Artifacts {
	a := &Artifacts{local: repokit.Scoped(s.Docs, prefix), log: s.Log}
	if s.Mirror != nil {
		a.mirror = repokit.Scoped(s.Mirror, prefix)
	}
	return a
}

// Name composes the artifact key from its stamp components
func Name(check, runDate, runTime string) string {
	return fmt.Sprintf("slot_check_%s_%s_%s.json", check, runDate, runTime)
}

// parseMeta turns an artifact key into its metadata; ok is false for keys
// that are not structured artifacts (the .csv siblings among them)
func parseMeta(key string) (domain.Meta, bool) {
	g := nameRe.FindStringSubmatch(key)
	if g == nil {
		return domain.Meta{}, false
	}
	check := g[1][:4] + "-" + g[1][4:6] + "-" + g[1][6:]
	return domain.Meta{Key: key, CheckDate: check, RunDate: g[2], RunTime: g[3]}, true
}

// Save writes the structured artifact and its tabular sibling locally, then
// uploads both to the mirror. Upload failure warns only
func (r *Artifacts) Save(ctx context.Context, key string, art domain.Artifact, csv []byte) error {
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "artifact %s: encode", key)
	}
	if err := r.local.Put(ctx, key, data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "artifact %s: local write", key)
	}
	csvKey := csvName(key)
	if err := r.local.Put(ctx, csvKey, csv); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "artifact %s: local write", csvKey)
	}
	if r.mirror != nil {
		if err := r.mirror.Put(ctx, key, data); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("harvest: mirror upload failed")
		} else if err := r.mirror.Put(ctx, csvKey, csv); err != nil {
			r.log.Warn().Err(err).Str("key", csvKey).Msg("harvest: mirror upload failed")
		}
	}
	return nil
}

func csvName(jsonKey string) string {
	return jsonKey[:len(jsonKey)-len(".json")] + ".csv"
}

// List returns metadata for every structured artifact on local disk
func (r *Artifacts) List(ctx context.Context) ([]domain.Meta, error) {
	keys, err := r.local.List(ctx, "")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "harvest: list artifacts")
	}
	metas := make([]domain.Meta, 0, len(keys))
	for _, k := range keys {
		if m, ok := parseMeta(k); ok {
			metas = append(metas, m)
		}
	}
	return metas, nil
}

// Load reads one structured artifact
func (r *Artifacts) Load(ctx context.Context, key string) (domain.Artifact, error) {
	data, err := r.local.Get(ctx, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return domain.Artifact{}, perr.NotFoundf("artifact %s", key)
		}
		return domain.Artifact{}, perr.Wrapf(err, perr.ErrorCodeStorage, "artifact %s: read", key)
	}
	var art domain.Artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return domain.Artifact{}, perr.Wrapf(err, perr.ErrorCodeStorage, "artifact %s: decode", key)
	}
	return art, nil
}
