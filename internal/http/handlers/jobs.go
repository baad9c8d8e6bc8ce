package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"emojigen/internal/domain"
	"emojigen/internal/queue"
)

// GetJob returns the side-channel status of one job.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := a.jobs.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "job not found")
			return
		}
		a.logger.Error().Err(err).Str("job_id", id).Msg("handlers: status lookup failed")
		a.jsonError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	a.json(w, http.StatusOK, summary)
}

// ListJobs returns the newest jobs for operational inspection.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	summaries, err := a.jobs.ListRecent(r.Context(), limit)
	if err != nil {
		a.logger.Error().Err(err).Msg("handlers: job listing failed")
		a.jsonError(w, http.StatusInternalServerError, "job listing failed")
		return
	}
	if summaries == nil {
		summaries = []queue.JobSummary{}
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": summaries})
}
