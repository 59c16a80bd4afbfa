package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/RocketHubAI/rocket-dispatch/internal/api/dto"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/recovery"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/reports"
	"github.com/RocketHubAI/rocket-dispatch/internal/dispatch/tasks"
)

// triggerRequest is the optional body on the report trigger endpoint.
// A missing, empty or malformed body means an immediate run.
type triggerRequest struct {
	Pregenerate bool `json:"pregenerate"`
	HoursAhead  int  `json:"hoursAhead"`
}

type DispatchHandler struct {
	reports *reports.Dispatcher
	tasks   *tasks.Processor
	sweeper *recovery.StaleSweeper
	cleaner *recovery.Cleaner
	log     zerolog.Logger
}

func NewDispatchHandler(
	reportsDispatcher *reports.Dispatcher,
	taskProcessor *tasks.Processor,
	sweeper *recovery.StaleSweeper,
	cleaner *recovery.Cleaner,
	log zerolog.Logger,
) *DispatchHandler {
	return &DispatchHandler{
		reports: reportsDispatcher,
		tasks:   taskProcessor,
		sweeper: sweeper,
		cleaner: cleaner,
		log:     log,
	}
}

// TriggerReports runs one report dispatch batch.
// POST /internal/dispatch/reports
func (h *DispatchHandler) TriggerReports(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil {
		// Defaults apply on any decode problem.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if req.HoursAhead <= 0 {
		req.HoursAhead = 4
	}

	result, err := h.reports.Run(r.Context(), reports.Options{
		Trigger:     "http",
		Pregenerate: req.Pregenerate,
		HoursAhead:  req.HoursAhead,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("report dispatch run failed")
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto.WriteJSON(w, http.StatusOK, result)
}

// TriggerTasks runs one scheduled task batch.
// POST /internal/dispatch/tasks
func (h *DispatchHandler) TriggerTasks(w http.ResponseWriter, r *http.Request) {
	result, err := h.tasks.Run(r.Context(), tasks.Options{Trigger: "http"})
	if err != nil {
		h.log.Error().Err(err).Msg("task dispatch run failed")
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dto.WriteJSON(w, http.StatusOK, result)
}

// TriggerSweep recovers stuck executions and prunes old audit rows.
// POST /internal/maintenance/sweep
func (h *DispatchHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("stale sweep failed")
		dto.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	deleted, err := h.cleaner.Clean(r.Context())
	if err != nil {
		// Recovery already happened; report the partial outcome.
		h.log.Error().Err(err).Msg("retention cleanup failed")
	}

	dto.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"recovered": result.Recovered,
		"failed":    result.Failed,
		"deleted":   deleted,
		"checkedAt": result.CheckedAt,
	})
}
