// Package secrets resolves the clinic credentials document.
//
// Two providers exist: Env for local development (environment variable with a
// document-bucket fallback) and GSM backed by Google Secret Manager. The
// payload is an opaque JSON blob; the registry owns its shape
package secrets

import (
	"context"

	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/store"
)

// Provider loads and saves the credentials payload
type Provider interface {
	// Load returns the current payload or perr.ErrNotFound when none exists
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the payload (a new version for versioned backends)
	Save(ctx context.Context, data []byte) error
}

// Config selects and parameterizes a provider
type Config struct {
	// Mode is "env" or "gsm"
	Mode string

	// Project is the GCP project id, required for gsm
	Project string

	// Name is the Secret Manager secret id, required for gsm
	Name string

	// EnvVar names the environment variable the env provider checks first
	EnvVar string
}

// New constructs the provider selected by cfg.Mode.
// docs backs the env provider's file fallback and may be nil for gsm
func New(ctx context.Context, cfg Config, docs store.Bucket) (Provider, error) {
	switch cfg.Mode {
	case "", "env":
		return NewEnv(cfg.EnvVar, docs), nil
	case "gsm":
		return openGSM(ctx, cfg)
	default:
		return nil, perr.InvalidArgf("secrets: unknown mode %q", cfg.Mode)
	}
}
