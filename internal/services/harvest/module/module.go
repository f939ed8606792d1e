// Package module implements the harvest service module
package module

import (
	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/adapters/scrape/legacy"
	"slotwatch/internal/adapters/scrape/spa"
	"slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/platform/browser"
	"slotwatch/internal/services/harvest/domain"
	"slotwatch/internal/services/harvest/repo"
	"slotwatch/internal/services/harvest/service"
	regdomain "slotwatch/internal/services/registry/domain"
	taskdomain "slotwatch/internal/services/tasks/domain"
)

// Ports exposed by the harvest module
type Ports struct {
	Runner  domain.RunnerPort
	Results domain.ResultsPort
}

// Module implements the harvest service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new harvest module. pool may be nil for API-only
// deployments; runs then fail at tab open, never at wiring
func New(deps modkit.Deps, pool *browser.Pool,
	registry regdomain.RegistryPort, tasks taskdomain.ManagerPort) *Module {
	opts := FromConfig(deps.Cfg)

	adapters := map[scrape.Backend]scrape.Adapter{
		scrape.BackendLegacy: legacy.New(deps.Log, opts.NavTimeout),
		scrape.BackendSPA:    spa.New(deps.Log, opts.NavTimeout),
	}
	sched := service.NewScheduler(pool, adapters, map[scrape.Backend]int{
		scrape.BackendLegacy: opts.LegacyParallel,
		scrape.BackendSPA:    opts.SPAParallel,
	}, deps.Log)

	svc := service.New(registry, tasks, sched, repo.NewBuckets(deps.Store), deps.Log, service.Config{
		RunTimeout:     opts.RunTimeout,
		MinBlocks:      opts.MinBlocks,
		LegacyInterval: opts.LegacyInterval,
		NextDayTokens:  opts.NextDayTokens,
		LegacyExclude:  opts.LegacyExclude,
		TaskTTL:        opts.TaskTTL,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Runner: svc, Results: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "harvest" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module; the runs and results API modules
// own the routes
func (m *Module) MountRoutes(r httpkit.Router) {}
