// Package local provides the on disk document bucket.
// Writes are synced to the physical device before returning so a crash
// immediately after a task mutation cannot lose the record
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	perr "slotwatch/internal/platform/errors"
)

// Config configures the bucket root
type Config struct {
	Dir string
}

// Local is a document bucket rooted at a directory
type Local struct {
	dir string
}

// Open creates the root directory when missing and returns the bucket
func Open(cfg Config) (*Local, error) {
	if cfg.Dir == "" {
		return nil, errors.New("local: empty dir")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("local: create root: %w", err)
	}
	return &Local{dir: cfg.Dir}, nil
}

// Put writes data under key, creating parent directories as needed.
// The file is fsynced before Put returns
func (l *Local) Put(_ context.Context, key string, data []byte) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("local: create parent for %q: %w", key, err)
	}

	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("local: open %q: %w", key, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("local: write %q: %w", key, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("local: sync %q: %w", key, err)
	}
	return f.Close()
}

// Get returns the object bytes or perr.ErrNotFound when absent
func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	p, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perr.ErrNotFound
		}
		return nil, fmt.Errorf("local: read %q: %w", key, err)
	}
	return data, nil
}

// List returns all keys under prefix, sorted ascending.
// A missing prefix directory yields an empty list, not an error
func (l *Local) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(l.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local: list %q: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the object; deleting an absent key is not an error
func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("local: delete %q: %w", key, err)
	}
	return nil
}

// Ping reports whether the root directory is still present and a directory
func (l *Local) Ping(_ context.Context) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("local: %q is not a directory", l.dir)
	}
	return nil
}

// resolve maps a slash separated key onto the root, rejecting escapes
func (l *Local) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("local: empty key")
	}
	clean := path.Clean(key)
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("local: key %q escapes root", key)
	}
	return filepath.Join(l.dir, filepath.FromSlash(clean)), nil
}
