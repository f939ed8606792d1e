package store

import (
	"context"
	"fmt"
	"time"

	"slotwatch/internal/platform/store/gcs"
	"slotwatch/internal/platform/store/local"
)

// openLocal opens the on disk bucket, creating its root directory
func openLocal(cfg Config) (Bucket, error) {
	return local.Open(local.Config{Dir: cfg.Local.Dir})
}

// openGCS opens object storage and confirms the bucket is reachable
func openGCS(ctx context.Context, cfg Config, s *Store) (Bucket, error) {
	g, err := gcs.Open(ctx, gcs.Config{
		Bucket:   cfg.GCS.Bucket,
		Prefix:   cfg.GCS.Prefix,
		Endpoint: cfg.GCS.Endpoint,
		Insecure: cfg.GCS.Insecure,
	})
	if err != nil {
		return nil, err
	}

	// Connection guardrails: confirm bucket attrs with retry/backoff
	maxAttempts := cfg.GCS.ConnectRetries
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	pingTimeout := cfg.GCS.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	const (
		backoffStart   = 150 * time.Millisecond
		backoffCeiling = 2 * time.Second
	)

	var lastErr error
	backoff := backoffStart
	for i := 0; i < maxAttempts; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = g.Ping(toCtx)
		cancel()

		if lastErr == nil {
			return g, nil
		}
		if ctx.Err() != nil {
			_ = g.Close()
			return nil, ctx.Err()
		}
		time.Sleep(backoff)
		if backoff < backoffCeiling {
			backoff *= 2
			if backoff > backoffCeiling {
				backoff = backoffCeiling
			}
		}
	}

	_ = g.Close()
	return nil, fmt.Errorf("gcs bucket %q unreachable after %d attempts: %w", cfg.GCS.Bucket, maxAttempts, lastErr)
}
