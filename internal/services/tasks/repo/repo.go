// Package repo spills task records to the document buckets
package repo

import (
	"context"
	"encoding/json"
	"strings"

	"slotwatch/internal/modkit/repokit"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/store"
	"slotwatch/internal/services/tasks/domain"
)

const prefix = "tasks"

// Tasks persists task records. The local bucket is authoritative; the
// object-store mirror is best effort
type Tasks struct {
	local  repokit.Bucket
	mirror repokit.Bucket // nil when the object store is disabled
	log    logger.Logger
}

// NewBuckets binds the repo to the store's buckets under the tasks prefix
func NewBuckets(s *store.Store) *Tasks {
	t := &Tasks{local: repokit.Scoped(s.Docs, prefix), log: s.Log}
	if s.Mirror != nil {
		t.mirror = repokit.Scoped(s.Mirror, prefix)
	}
	return t
}

func key(id string) string { return "task_" + id + ".json" }

func idOf(key string) (string, bool) {
	id := strings.TrimSuffix(strings.TrimPrefix(key, "task_"), ".json")
	return id, id != key && id != ""
}

// Save persists the record: mirror first when configured (failure warns
// only), then the authoritative local write
func (r *Tasks) Save(ctx context.Context, t domain.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "task %s: encode", t.ID)
	}
	if r.mirror != nil {
		if err := r.mirror.Put(ctx, key(t.ID), data); err != nil {
			r.log.Warn().Err(err).Str("task", t.ID).Msg("tasks: mirror write failed")
		}
	}
	if err := r.local.Put(ctx, key(t.ID), data); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "task %s: local write", t.ID)
	}
	return nil
}

// Load reads a spilled record: mirror first, then the local file
func (r *Tasks) Load(ctx context.Context, id string) (domain.Task, error) {
	var (
		data []byte
		err  error = perr.ErrNotFound
	)
	if r.mirror != nil {
		data, err = r.mirror.Get(ctx, key(id))
	}
	if err != nil {
		data, err = r.local.Get(ctx, key(id))
	}
	if err != nil {
		return domain.Task{}, err
	}
	var t domain.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Task{}, perr.Wrapf(err, perr.ErrorCodeStorage, "task %s: decode", id)
	}
	return t, nil
}

// IDs lists every spilled task ID on the local bucket
func (r *Tasks) IDs(ctx context.Context) ([]string, error) {
	keys, err := r.local.List(ctx, "")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeStorage, "tasks: list")
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := idOf(k); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes the record from both buckets. Absence is not an error
func (r *Tasks) Delete(ctx context.Context, id string) error {
	if r.mirror != nil {
		if err := r.mirror.Delete(ctx, key(id)); err != nil {
			r.log.Warn().Err(err).Str("task", id).Msg("tasks: mirror delete failed")
		}
	}
	if err := r.local.Delete(ctx, key(id)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "task %s: delete", id)
	}
	return nil
}
