// Package http provides http transport for run control
package http

import (
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"slotwatch/internal/adapters/scrape"
	"slotwatch/internal/modkit/httpkit"
	perr "slotwatch/internal/platform/errors"
	ptime "slotwatch/internal/platform/time"
	harvestdomain "slotwatch/internal/services/harvest/domain"
	taskdomain "slotwatch/internal/services/tasks/domain"
)

// Deps are the handler dependencies
type Deps struct {
	Runner harvestdomain.RunnerPort
	Tasks  taskdomain.ManagerPort
	Clock  ptime.Clock
}

type handlers struct {
	deps Deps
}

// Register mounts the run routes
func Register(r httpkit.Router, d Deps) {
	if d.Clock == nil {
		d.Clock = ptime.System{}
	}
	h := &handlers{deps: d}

	r.Post("/", httpkit.Call(h.launch))
	httpkit.Get(r, "/{task_id}", h.task)
}

// RunInput optionally narrows a run to one back-end
// swagger:model
type RunInput struct {
	System string `json:"system,omitempty" example:"legacy"`
}

// RunAccepted acknowledges a launched run
type RunAccepted struct {
	TaskID string `json:"task_id" example:"20260825_093000"`
}

// RunConflict reports the run already in flight
type RunConflict struct {
	TaskID         string  `json:"task_id"          example:"20260825_093000"`
	ElapsedSeconds float64 `json:"elapsed_seconds"  example:"42.5"`
}

// swagger:route POST /run Runs runLaunch
// @Summary Launch a harvest run in the background
// @Tags Runs
// @Accept json
// @Produce json
// @Param payload body RunInput false "Optional back-end filter"
// @Success 202 type RunAccepted "run accepted"
// @Failure 409 type RunConflict "a run is already active"
// @Router /run [post]
func (h *handlers) launch(r *stdhttp.Request) (any, error) {
	// the body is optional; an empty POST runs both back-ends
	var in RunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "invalid run request")
	}
	system := scrape.Backend(in.System)
	if in.System != "" && !system.Valid() {
		return nil, perr.InvalidArgf("unknown system %q", in.System)
	}

	id, err := h.deps.Runner.Launch(r.Context(), system)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeConflict) {
			if active, ok := h.deps.Tasks.Active(); ok {
				return httpkit.Response{
					Status: stdhttp.StatusConflict,
					Body: RunConflict{
						TaskID:         active.ID,
						ElapsedSeconds: active.Elapsed(ptime.NowJST(h.deps.Clock)).Round(time.Second).Seconds(),
					},
				}, nil
			}
		}
		return nil, err
	}
	return httpkit.Response{Status: stdhttp.StatusAccepted, Body: RunAccepted{TaskID: id}}, nil
}

// swagger:route GET /run/{task_id} Runs runStatus
// @Summary Task record for one run
// @Tags Runs
// @Produce json
// @Success 200 type taskdomain.Task "task record"
// @Failure 404 type httpkit.Envelope "unknown task"
// @Router /run/{task_id} [get]
func (h *handlers) task(r *stdhttp.Request) (any, error) {
	return h.deps.Tasks.Get(r.Context(), httpkit.Param(r, "task_id"))
}
