// Package http provides http transport for clinic administration
package http

import (
	stdhttp "net/http"

	"slotwatch/internal/modkit/httpkit"
	"slotwatch/internal/platform/net/middleware"
	regdomain "slotwatch/internal/services/registry/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Registry regdomain.RegistryPort
	Admin    regdomain.AdminPort

	// Auth guards the mutation routes; nil leaves them open
	Auth middleware.AuthPort
}

type handlers struct {
	deps Deps
}

// Register mounts the clinic routes. Reads stay open; edits sit behind
// the console bearer token
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/", h.list)
	httpkit.Get(r, "/{name}", h.get)
	httpkit.Protected(r, d.Auth, func(pr httpkit.Router) {
		httpkit.PostJSON[regdomain.Clinic](pr, "/", h.upsert)
		httpkit.Post(pr, "/reload", h.reload)
		httpkit.PostJSON[EnableInput](pr, "/{name}/enable", h.enable)
	})
}

// EnableInput toggles whether a clinic participates in runs
// swagger:model
type EnableInput struct {
	Enabled bool `json:"enabled" example:"true"`
}

// swagger:route GET /clinics Clinics clinicsList
// @Summary Configured clinics in canonical order
// @Tags Clinics
// @Produce json
// @Success 200 {array} regdomain.Clinic "clinics"
// @Router /clinics [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.deps.Registry.Clinics(r.Context())
}

// swagger:route GET /clinics/{name} Clinics clinicsGet
// @Summary One clinic by name
// @Tags Clinics
// @Produce json
// @Success 200 type regdomain.Clinic "clinic"
// @Failure 404 type httpkit.Envelope "unknown clinic"
// @Router /clinics/{name} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.deps.Registry.Clinic(r.Context(), httpkit.Param(r, "name"))
}

// swagger:route POST /clinics Clinics clinicsUpsert
// @Summary Create or replace a clinic record
// @Tags Clinics
// @Accept json
// @Produce json
// @Param payload body regdomain.Clinic true "Clinic"
// @Success 200 type regdomain.Clinic "stored clinic"
// @Router /clinics [post]
func (h *handlers) upsert(r *stdhttp.Request, in regdomain.Clinic) (any, error) {
	if err := h.deps.Admin.UpsertClinic(r.Context(), in); err != nil {
		return nil, err
	}
	return h.deps.Registry.Clinic(r.Context(), in.Name)
}

// swagger:route POST /clinics/{name}/enable Clinics clinicsEnable
// @Summary Enable or disable a clinic for runs
// @Tags Clinics
// @Accept json
// @Produce json
// @Param payload body EnableInput true "Flag"
// @Success 200 type regdomain.Clinic "updated clinic"
// @Failure 404 type httpkit.Envelope "unknown clinic"
// @Router /clinics/{name}/enable [post]
func (h *handlers) enable(r *stdhttp.Request, in EnableInput) (any, error) {
	return h.deps.Admin.EnableClinic(r.Context(), httpkit.Param(r, "name"), in.Enabled)
}

// swagger:route POST /clinics/reload Clinics clinicsReload
// @Summary Drop the registry document caches
// @Tags Clinics
// @Produce json
// @Success 200 type map[string]bool "ack"
// @Router /clinics/reload [post]
func (h *handlers) reload(r *stdhttp.Request) (any, error) {
	h.deps.Registry.Reload(r.Context())
	return map[string]bool{"reloaded": true}, nil
}
