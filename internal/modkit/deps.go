// Package modkit provides module wiring and core deps
package modkit

import (
	"slotwatch/internal/platform/config"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/store"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log   logger.Logger
	Cfg   config.Conf
	Store *store.Store

	// Browser is the headless browser pool readiness seam.
	// nil when the service runs without a browser (API-only deployments)
	Browser store.Pinger
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// consumers should still nil check for optional stores
func (d Deps) ZeroOK() bool { return true }
