// Package module implements the registry service module
package module

import (
	"slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/services/registry/domain"
	"slotwatch/internal/services/registry/repo"
	"slotwatch/internal/services/registry/service"
)

// Ports exposed by the registry module
type Ports struct {
	Registry domain.RegistryPort
	Admin    domain.AdminPort
}

// Module implements the registry service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new registry module with the process secrets provider
func New(deps modkit.Deps, creds secrets.Provider) *Module {
	storage := repo.NewBuckets(deps.Store)
	svc := service.New(storage, creds, deps.Log)

	m := &Module{deps: deps}
	m.ports = Ports{Registry: svc, Admin: svc}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "registry" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module; the clinics and staff API modules
// own the routes
func (m *Module) MountRoutes(r httpkit.Router) {}
