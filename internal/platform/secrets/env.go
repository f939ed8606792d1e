package secrets

import (
	"context"
	"os"

	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/store"
)

// credentialsKey is where the env provider spills the payload locally
const credentialsKey = "config/credentials.json"

// DefaultEnvVar is checked by the env provider when Config.EnvVar is empty
const DefaultEnvVar = "SLOTWATCH_CREDENTIALS"

// Env serves credentials without any cloud dependency: an inline environment
// variable wins, otherwise the payload lives as a document in the local bucket
type Env struct {
	envVar string
	docs   store.Bucket
}

// NewEnv returns the local provider. docs may be nil, in which case only the
// environment variable is consulted and Save fails
func NewEnv(envVar string, docs store.Bucket) *Env {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	return &Env{envVar: envVar, docs: docs}
}

// Load returns the env var payload when set, else the bucket document
func (e *Env) Load(ctx context.Context) ([]byte, error) {
	if v := os.Getenv(e.envVar); v != "" {
		return []byte(v), nil
	}
	if e.docs == nil {
		return nil, perr.ErrNotFound
	}
	return e.docs.Get(ctx, credentialsKey)
}

// Save writes the payload to the bucket document. The environment variable is
// read only; callers that set it keep it authoritative for Load regardless
func (e *Env) Save(ctx context.Context, data []byte) error {
	if e.docs == nil {
		return perr.Unavailablef("secrets: no document bucket to save to")
	}
	return e.docs.Put(ctx, credentialsKey, data)
}
