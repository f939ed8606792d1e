// Package repokit provides common types and helpers for repository implementations
package repokit

import (
	"context"
	"strings"

	"slotwatch/internal/platform/store"
)

// Bucket is the minimal document surface repos bind to
type Bucket = store.Bucket

// Scoped returns a view of b with every key placed under prefix.
// Repos use it to own a key namespace like "tasks/" or "config/"
func Scoped(b Bucket, prefix string) Bucket {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return b
	}
	return scoped{inner: b, prefix: prefix + "/"}
}

type scoped struct {
	inner  Bucket
	prefix string
}

func (s scoped) Put(ctx context.Context, key string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+key, data)
}

func (s scoped) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s scoped) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.inner.List(ctx, s.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, s.prefix))
	}
	return out, nil
}

func (s scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}
