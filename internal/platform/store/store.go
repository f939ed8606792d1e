// Package store provides a unified interface to the document storage backends
package store

import (
	"context"
	"errors"
	"fmt"

	"slotwatch/internal/platform/logger"
)

// Store is the facade for the storage seams
// zero value is safe but does nothing
type Store struct {
	// Log is the logger used by subclients
	// zero means a no op zerolog logger
	Log logger.Logger

	// Docs is the authoritative local document bucket, always set by Open
	Docs Bucket

	// Mirror is the object storage bucket, nil when disabled.
	// Writes to it are best effort; the local bucket stays authoritative
	Mirror Bucket
}

// Bucket is the minimal document contract repos need.
// Keys are slash separated relative paths such as "tasks/task_20260115_093000.json"
type Bucket interface {
	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object bytes or perr.ErrNotFound when absent
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns all keys under prefix, sorted ascending
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil on the Store
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	// defaults for zero logger to avoid nil checks
	s.Log = s.Log.With().Logger()

	docs, err := openLocal(cfg)
	if err != nil {
		return nil, err
	}
	s.Docs = docs

	if cfg.GCS.Enabled {
		mirror, err := openGCS(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.Mirror = mirror
	}

	return s, nil
}

// Guard verifies all configured seams the Store knows about
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	if s.Docs != nil {
		if p, ok := s.Docs.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("local: %w", err))
			}
		}
	}
	if s.Mirror != nil {
		if p, ok := s.Mirror.(Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("gcs: %w", err))
			}
		}
	}

	return errors.Join(errs...)
}

// Close closes all initialized backends gracefully
// nil backends are ignored
func (s *Store) Close(ctx context.Context) error {
	var errs []error

	if c, ok := s.Mirror.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, e)
		}
	}

	if c, ok := s.Docs.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, e)
		}
	}

	return errors.Join(errs...)
}
