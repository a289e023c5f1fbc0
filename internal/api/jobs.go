package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-voice/internal/schedule"
)

// scheduleRequest is the body of POST /jobs.
type scheduleRequest struct {
	Command string   `json:"command"`
	Items   []string `json:"items"`
	Delay   string   `json:"delay"` // Go duration, e.g. "10m"
	SiteID  string   `json:"site_id,omitempty"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeUnavailable(w, "scheduler not configured")
		return
	}
	jobs, err := s.scheduler.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		writeInternalError(w, "failed to list jobs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// handleScheduleJob defers a command. Every item must exist in the current
// item graph. Scheduling the same command for the same items again replaces
// the pending job.
func (s *Server) handleScheduleJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeUnavailable(w, "scheduler not configured")
		return
	}
	store := s.currentStore(w)
	if store == nil {
		return
	}

	var req scheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	delay, err := time.ParseDuration(req.Delay)
	if err != nil {
		writeBadRequest(w, "invalid delay: "+req.Delay)
		return
	}
	var unknown []string
	for _, name := range req.Items {
		if _, ok := store.Item(name); !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		writeBadRequest(w, "unknown items: "+strings.Join(unknown, ", "))
		return
	}

	job, err := s.scheduler.Schedule(r.Context(), strings.TrimSpace(req.Command), req.Items, delay, req.SiteID)
	switch {
	case errors.Is(err, schedule.ErrInvalidJob):
		writeBadRequest(w, err.Error())
	case errors.Is(err, schedule.ErrStopped):
		writeUnavailable(w, err.Error())
	case err != nil:
		s.logger.Error("failed to schedule job", "error", err)
		writeInternalError(w, "failed to schedule job")
	default:
		writeJSON(w, http.StatusCreated, job)
	}
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		writeUnavailable(w, "scheduler not configured")
		return
	}
	err := s.scheduler.Cancel(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, schedule.ErrJobNotFound):
		writeNotFound(w, "job not found")
	case err != nil:
		s.logger.Error("failed to cancel job", "error", err)
		writeInternalError(w, "failed to cancel job")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
