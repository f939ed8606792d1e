// Package module wires run control into the API using modkit
package module

import (
	"net/http"

	modkit "slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	str "slotwatch/internal/platform/strings"
	ptime "slotwatch/internal/platform/time"

	runshttp "slotwatch/internal/services/api/runs/http"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	taskdomain "slotwatch/internal/services/tasks/domain"
)

// Ports declares the worker ports this API module consumes
type Ports struct {
	Runner harvestdomain.RunnerPort
	Tasks  taskdomain.ManagerPort
	Clock  ptime.Clock
}

// Module implements the runs API module
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

// New constructs the runs module. The runner and task ports are injected
// from the harvest and tasks modules via modkit.WithPorts
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("runs"),
		modkit.WithPrefix("/run"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Runner == nil || injected.Tasks == nil {
		panic("runs API module requires Runner and Tasks ports")
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
		runshttp.Register(r, runshttp.Deps{
			Runner: injected.Runner,
			Tasks:  injected.Tasks,
			Clock:  injected.Clock,
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
func (m *Module) Name() string { return str.MustString(m.name, "runs") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
