// Package module implements the tasks service module
package module

import (
	"slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/services/tasks/domain"
	"slotwatch/internal/services/tasks/repo"
	"slotwatch/internal/services/tasks/service"
)

// Ports exposed by the tasks module
type Ports struct {
	Manager domain.ManagerPort
}

// Module implements the tasks service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new tasks module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)

	storage := repo.NewBuckets(deps.Store)
	svc := service.New(storage, deps.Log, service.Config{
		TTL: opts.TTL,
	})

	m := &Module{deps: deps}
	m.ports = Ports{Manager: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "tasks" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module; the runs API module owns the routes
func (m *Module) MountRoutes(r httpkit.Router) {}
