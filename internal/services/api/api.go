// Package api provides the HTTP API for the application
package api

import (
	"slotwatch/internal/platform/browser"
	"slotwatch/internal/platform/config"
	"slotwatch/internal/platform/logger"
	phttp "slotwatch/internal/platform/net/http"
	"slotwatch/internal/platform/net/middleware"
	"slotwatch/internal/platform/secrets"
	"slotwatch/internal/platform/store"

	"slotwatch/internal/modkit"
	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/modkit/module"
	"slotwatch/internal/modkit/swaggerkit"

	clinicsmod "slotwatch/internal/services/api/clinics/module"
	metamod "slotwatch/internal/services/api/meta/module"
	resultsmod "slotwatch/internal/services/api/results/module"
	runsmod "slotwatch/internal/services/api/runs/module"
	staffmod "slotwatch/internal/services/api/staff/module"

	// Worker modules own the ports the API modules consume
	harvestmod "slotwatch/internal/services/harvest/module"
	registrymod "slotwatch/internal/services/registry/module"
	tasksmod "slotwatch/internal/services/tasks/module"
)

// Options are the API options
type Options struct {
	Config  config.Conf
	Store   *store.Store
	Logger  logger.Logger
	Secrets secrets.Provider

	// Browser is nil on API-only deployments; runs then fail at tab open
	Browser *browser.Pool

	EnableSwagger  bool
	EnableProfiler bool

	// AdminToken guards the mutating console routes; empty leaves them open
	AdminToken string
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Log:   opt.Logger,
		Cfg:   opt.Config,
		Store: opt.Store,
	}
	if opt.Browser != nil {
		deps.Browser = opt.Browser
	}

	// Worker modules first; the API modules borrow their ports
	tasks := tasksmod.New(deps)
	taskPorts := module.MustPortsOf[tasksmod.Ports](tasks)

	registry := registrymod.New(deps, opt.Secrets)
	registryPorts := module.MustPortsOf[registrymod.Ports](registry)

	harvest := harvestmod.New(deps, opt.Browser, registryPorts.Registry, taskPorts.Manager)
	harvestPorts := module.MustPortsOf[harvestmod.Ports](harvest)

	var guard middleware.AuthPort
	if opt.AdminToken != "" {
		guard = httpkit.NewStaticBearer(opt.AdminToken)
	}

	mods := []module.Module{
		metamod.New(deps),
		tasks,
		registry,
		harvest,
		runsmod.New(deps, modkit.WithPorts(runsmod.Ports{
			Runner: harvestPorts.Runner,
			Tasks:  taskPorts.Manager,
		})),
		resultsmod.New(deps, modkit.WithPorts(resultsmod.Ports{
			Results:  harvestPorts.Results,
			Registry: registryPorts.Registry,
		})),
		clinicsmod.New(deps, modkit.WithPorts(clinicsmod.Ports{
			Registry: registryPorts.Registry,
			Admin:    registryPorts.Admin,
			Auth:     guard,
		})),
		staffmod.New(deps, modkit.WithPorts(staffmod.Ports{
			Registry: registryPorts.Registry,
			Admin:    registryPorts.Admin,
			Results:  harvestPorts.Results,
			Auth:     guard,
		})),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
