package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	perr "slotwatch/internal/platform/errors"
)

// PutJSON marshals v with two space indentation and stores it under key.
// Indented output keeps task records and run artifacts inspectable with
// plain shell tools
func PutJSON(ctx context.Context, b Bucket, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %q: %w", key, err)
	}
	return b.Put(ctx, key, data)
}

// GetJSON loads key and unmarshals it into T.
// Absent keys surface as perr.ErrNotFound from the bucket
func GetJSON[T any](ctx context.Context, b Bucket, key string) (T, error) {
	var zero T
	data, err := b.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, fmt.Errorf("unmarshal %q: %w", key, err)
	}
	return v, nil
}

// Exists reports whether key is present in the bucket
func Exists(ctx context.Context, b Bucket, key string) (bool, error) {
	_, err := b.Get(ctx, key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, perr.ErrNotFound) {
		return false, nil
	}
	return false, err
}
