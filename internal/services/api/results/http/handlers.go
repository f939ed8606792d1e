// Package http provides http transport for run artifacts
package http

import (
	stdhttp "net/http"

	"slotwatch/internal/modkit/httpkit"
	perr "slotwatch/internal/platform/errors"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	regdomain "slotwatch/internal/services/registry/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Results  harvestdomain.ResultsPort
	Registry regdomain.RegistryPort
}

type handlers struct {
	deps Deps
}

// Register mounts the result routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/latest", h.latest)
	httpkit.Get(r, "/list", h.list)
	httpkit.PostJSON[RecalculateInput](r, "/recalculate", h.recalculate)
	httpkit.Get(r, "/{date}", h.byDate)
}

// ResultResponse pairs an artifact with its storage key
// swagger:model
type ResultResponse struct {
	Key string `json:"key" example:"slot_check_20260826_20260825_093000.json"`
	harvestdomain.Artifact
}

// RecalculateInput carries the what-if threshold
// swagger:model
type RecalculateInput struct {
	ThresholdMinutes int `json:"threshold_minutes" example:"60"`
}

// swagger:route GET /result/latest Results resultLatest
// @Summary Most recent run artifact
// @Tags Results
// @Produce json
// @Param category query string false "doctor|hygienist|orthodontist detail filter"
// @Success 200 type ResultResponse "artifact"
// @Failure 404 type httpkit.Envelope "no artifacts yet"
// @Router /result/latest [get]
func (h *handlers) latest(r *stdhttp.Request) (any, error) {
	art, meta, err := h.deps.Results.Latest(r.Context())
	if err != nil {
		return nil, err
	}
	art, err = h.filtered(r, art)
	if err != nil {
		return nil, err
	}
	return ResultResponse{Key: meta.Key, Artifact: art}, nil
}

// swagger:route GET /result/list Results resultList
// @Summary Artifact listing, newest first
// @Tags Results
// @Produce json
// @Param sort_key query string false "check_date|run_date|run_time"
// @Success 200 {array} harvestdomain.Meta "artifact metadata"
// @Router /result/list [get]
func (h *handlers) list(r *stdhttp.Request) (any, error) {
	key := harvestdomain.SortKey(r.URL.Query().Get("sort_key"))
	return h.deps.Results.List(r.Context(), key)
}

// swagger:route GET /result/{date} Results resultByDate
// @Summary Most recent artifact for a check date
// @Tags Results
// @Produce json
// @Param date path string true "check date, YYYY-MM-DD"
// @Param category query string false "doctor|hygienist|orthodontist detail filter"
// @Success 200 type ResultResponse "artifact"
// @Failure 404 type httpkit.Envelope "no artifact for that date"
// @Router /result/{date} [get]
func (h *handlers) byDate(r *stdhttp.Request) (any, error) {
	art, meta, err := h.deps.Results.ByDate(r.Context(), httpkit.Param(r, "date"))
	if err != nil {
		return nil, err
	}
	art, err = h.filtered(r, art)
	if err != nil {
		return nil, err
	}
	return ResultResponse{Key: meta.Key, Artifact: art}, nil
}

// swagger:route POST /result/recalculate Results resultRecalculate
// @Summary Latest artifact recomputed under a different threshold
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body RecalculateInput true "Threshold"
// @Success 200 type harvestdomain.Artifact "recomputed artifact, not persisted"
// @Router /result/recalculate [post]
func (h *handlers) recalculate(r *stdhttp.Request, in RecalculateInput) (any, error) {
	return h.deps.Results.Recalculate(r.Context(), in.ThresholdMinutes)
}

// filtered applies the optional ?category= view. Details narrow to staff the
// clinic's current rules classify into the category; totals and summary stay
// as computed at run time
func (h *handlers) filtered(r *stdhttp.Request, art harvestdomain.Artifact) (harvestdomain.Artifact, error) {
	raw := r.URL.Query().Get("category")
	if raw == "" {
		return art, nil
	}
	cat := regdomain.Category(raw)
	switch cat {
	case regdomain.CategoryDoctor, regdomain.CategoryHygienist,
		regdomain.CategoryOrthodontist, regdomain.CategoryUnknown:
	default:
		return art, perr.InvalidArgf("unknown category %q", raw)
	}

	out := art
	out.Results = append([]harvestdomain.ClinicResult(nil), art.Results...)
	for i, res := range out.Results {
		rules, ok, err := h.deps.Registry.Rules(r.Context(), res.Clinic)
		if err != nil {
			return art, err
		}
		if !ok {
			rules = regdomain.Ruleset{}
		}
		kept := res.Details[:0:0]
		for _, d := range res.Details {
			if rules.Classify(d.Staff) == cat {
				kept = append(kept, d)
			}
		}
		out.Results[i].Details = kept
	}
	return out, nil
}
