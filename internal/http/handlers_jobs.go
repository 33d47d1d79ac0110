// Package httpx provides HTTP handlers and utilities for the ticketgen job system API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/raffleworks/ticketgen/internal/data"
	"github.com/raffleworks/ticketgen/internal/domain/model"
	"github.com/raffleworks/ticketgen/internal/service"
)

// JobHandlers provides HTTP handlers for generation job operations.
type JobHandlers struct {
	Svc     *service.JobService
	Manager *service.ManagerService
}

// CreateJob handles HTTP requests to create a new generation job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "create_failed", Err: err})
		return
	}

	WriteJSON(w, http.StatusCreated, job)
}

// GetJob handles HTTP requests to retrieve a job by id.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(
			w,
			ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_path", Err: errors.New("job id is required")},
		)
		return
	}

	job, err := h.Svc.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			WriteError(
				w,
				ErrorParams{Code: http.StatusNotFound, ErrCode: "job_not_found", Err: errors.New("job not found")},
			)
		} else {
			WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "get_job_failed", Err: errors.New("failed to get job")})
		}
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// RunCycle handles HTTP requests to trigger one dispatch cycle and returns
// its summary. The endpoint is how external schedulers (cron, queue
// consumers) drive generation without keeping the manager loop enabled.
func (h *JobHandlers) RunCycle(w http.ResponseWriter, r *http.Request) {
	if h.Manager == nil {
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "manager_disabled", Err: errors.New("generation manager is not enabled")})
		return
	}

	summary, err := h.Manager.RunCycle(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "dispatch_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// Stats handles HTTP requests to retrieve job counts per status.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "stats_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
