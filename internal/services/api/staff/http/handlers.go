// Package http provides http transport for staff rule administration
package http

import (
	stdhttp "net/http"

	"slotwatch/internal/modkit/httpkit"
	perr "slotwatch/internal/platform/errors"
	"slotwatch/internal/platform/logger"
	"slotwatch/internal/platform/net/middleware"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	regdomain "slotwatch/internal/services/registry/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Registry regdomain.RegistryPort
	Admin    regdomain.AdminPort

	// Results feeds the staff sync with the latest artifact's names
	Results harvestdomain.ResultsPort

	// Auth guards the mutation routes; nil leaves them open
	Auth middleware.AuthPort
}

type handlers struct {
	deps Deps
}

// Register mounts the staff rule routes. Reads stay open; edits sit
// behind the console bearer token
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}

	httpkit.Get(r, "/{clinic}", h.rules)
	httpkit.Protected(r, d.Auth, func(pr httpkit.Router) {
		httpkit.PostJSON[CategoryInput](pr, "/{clinic}/category", h.category)
		httpkit.PostJSON[StaffInput](pr, "/{clinic}/disabled", h.disabled)
		httpkit.PostJSON[StaffInput](pr, "/{clinic}/web-booking", h.webBooking)
		httpkit.PostJSON[MemoInput](pr, "/{clinic}/memo", h.memo)
		httpkit.PostJSON[TagInput](pr, "/{clinic}/tag", h.tag)
		httpkit.PostJSON[ThresholdInput](pr, "/{clinic}/threshold", h.threshold)
		httpkit.Post(pr, "/{clinic}/sync", h.sync)
	})
}

// audit records who edited a clinic's rules when the request carried an
// authenticated operator
func audit(r *stdhttp.Request, clinic, action string) {
	if op, err := httpkit.Operator(r); err == nil {
		logger.C(r.Context()).Info().
			Str("operator", op).Str("clinic", clinic).Str("action", action).
			Msg("staff: rules edited")
	}
}

// RulesResponse is a clinic's ruleset with a configured flag
// swagger:model
type RulesResponse struct {
	Clinic     string `json:"clinic" example:"minami"`
	Configured bool   `json:"configured" example:"true"`
	regdomain.Ruleset
}

// StaffInput names one staff member
type StaffInput struct {
	Staff string `json:"staff" example:"山田"`
}

// CategoryInput assigns a staff member to a category
type CategoryInput struct {
	Staff    string `json:"staff"    example:"山田"`
	Category string `json:"category" example:"doctor"`
}

// MemoInput sets or clears a staff memo
type MemoInput struct {
	Staff string `json:"staff" example:"山田"`
	Memo  string `json:"memo"  example:"木曜のみ"`
}

// TagInput sets or clears a staff tag
type TagInput struct {
	Staff string `json:"staff" example:"山田"`
	Tag   string `json:"tag"   example:"矯正"`
}

// ThresholdInput sets a category threshold in minutes
type ThresholdInput struct {
	Category string `json:"category" example:"hygienist"`
	Minutes  int    `json:"minutes"  example:"60"`
}

// SyncResponse reports the staff sync outcome
type SyncResponse struct {
	Added    int      `json:"added"     example:"2"`
	AllStaff []string `json:"all_staff"`
}

// swagger:route GET /staff/{clinic} Staff staffRules
// @Summary Current ruleset for a clinic
// @Tags Staff
// @Produce json
// @Success 200 type RulesResponse "ruleset, zero-valued when unconfigured"
// @Router /staff/{clinic} [get]
func (h *handlers) rules(r *stdhttp.Request) (any, error) {
	clinic := httpkit.Param(r, "clinic")
	rules, ok, err := h.deps.Registry.Rules(r.Context(), clinic)
	if err != nil {
		return nil, err
	}
	return RulesResponse{Clinic: clinic, Configured: ok, Ruleset: rules}, nil
}

// swagger:route POST /staff/{clinic}/category Staff staffCategory
// @Summary Assign a staff member to a category
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body CategoryInput true "Assignment"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/category [post]
func (h *handlers) category(r *stdhttp.Request, in CategoryInput) (any, error) {
	if in.Staff == "" {
		return nil, perr.InvalidArgf("staff is required")
	}
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.AssignCategory(r.Context(), clinic, in.Staff, regdomain.Category(in.Category))
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "category")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/disabled Staff staffDisabled
// @Summary Toggle a staff member's extraction exclusion
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body StaffInput true "Staff"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/disabled [post]
func (h *handlers) disabled(r *stdhttp.Request, in StaffInput) (any, error) {
	if in.Staff == "" {
		return nil, perr.InvalidArgf("staff is required")
	}
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.ToggleDisabled(r.Context(), clinic, in.Staff)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "disabled")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/web-booking Staff staffWebBooking
// @Summary Toggle a staff member on the web-booking allow-list
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body StaffInput true "Staff"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/web-booking [post]
func (h *handlers) webBooking(r *stdhttp.Request, in StaffInput) (any, error) {
	if in.Staff == "" {
		return nil, perr.InvalidArgf("staff is required")
	}
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.ToggleWebBooking(r.Context(), clinic, in.Staff)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "web-booking")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/memo Staff staffMemo
// @Summary Set or clear a staff memo
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body MemoInput true "Memo, empty clears"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/memo [post]
func (h *handlers) memo(r *stdhttp.Request, in MemoInput) (any, error) {
	if in.Staff == "" {
		return nil, perr.InvalidArgf("staff is required")
	}
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.SetMemo(r.Context(), clinic, in.Staff, in.Memo)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "memo")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/tag Staff staffTag
// @Summary Set or clear a staff tag
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body TagInput true "Tag, empty clears"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/tag [post]
func (h *handlers) tag(r *stdhttp.Request, in TagInput) (any, error) {
	if in.Staff == "" {
		return nil, perr.InvalidArgf("staff is required")
	}
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.SetTag(r.Context(), clinic, in.Staff, in.Tag)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "tag")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/threshold Staff staffThreshold
// @Summary Set a category threshold in minutes
// @Tags Staff
// @Accept json
// @Produce json
// @Param payload body ThresholdInput true "Threshold"
// @Success 200 type regdomain.Ruleset "updated ruleset"
// @Router /staff/{clinic}/threshold [post]
func (h *handlers) threshold(r *stdhttp.Request, in ThresholdInput) (any, error) {
	clinic := httpkit.Param(r, "clinic")
	rs, err := h.deps.Admin.SetThreshold(r.Context(), clinic, regdomain.Category(in.Category), in.Minutes)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "threshold")
	return rs, nil
}

// swagger:route POST /staff/{clinic}/sync Staff staffSync
// @Summary Merge the latest artifact's staff into the clinic snapshot
// @Tags Staff
// @Produce json
// @Success 200 type SyncResponse "sync outcome"
// @Failure 404 type httpkit.Envelope "no artifacts yet"
// @Router /staff/{clinic}/sync [post]
func (h *handlers) sync(r *stdhttp.Request) (any, error) {
	clinic := httpkit.Param(r, "clinic")

	art, _, err := h.deps.Results.Latest(r.Context())
	if err != nil {
		return nil, err
	}
	var observed []string
	for _, res := range art.Results {
		if res.Clinic != clinic {
			continue
		}
		for _, d := range res.Details {
			observed = append(observed, d.Staff)
		}
	}

	added, err := h.deps.Admin.SyncStaff(r.Context(), clinic, observed)
	if err != nil {
		return nil, err
	}
	rules, _, err := h.deps.Registry.Rules(r.Context(), clinic)
	if err != nil {
		return nil, err
	}
	audit(r, clinic, "sync")
	return SyncResponse{Added: added, AllStaff: rules.AllStaff}, nil
}
