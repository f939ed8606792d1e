// Package module wires clinic administration into the API using modkit
package module

import (
	"net/http"

	modkit "slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/platform/net/middleware"
	str "slotwatch/internal/platform/strings"

	clinicshttp "slotwatch/internal/services/api/clinics/http"
	regdomain "slotwatch/internal/services/registry/domain"
)

// Ports declares the registry ports this API module consumes
type Ports struct {
	Registry regdomain.RegistryPort
	Admin    regdomain.AdminPort

	// Auth is optional; nil leaves the mutation routes open
	Auth middleware.AuthPort
}

// Module implements the clinics API module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the clinics module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("clinics"),
		modkit.WithPrefix("/clinics"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Registry == nil || injected.Admin == nil {
		panic("clinics API module requires Registry and Admin ports")
	}

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		ports:     injected,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		clinicshttp.Register(r, clinicshttp.Deps{
			Registry: injected.Registry,
			Admin:    injected.Admin,
			Auth:     injected.Auth,
		})
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "clinics") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
