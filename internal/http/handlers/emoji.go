package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"emojigen/internal/domain"
	"emojigen/internal/middleware"
)

type createEmojiRequest struct {
	Description    string              `json:"description"`
	MessageContext string              `json:"context,omitempty"`
	Name           string              `json:"name,omitempty"`
	ChannelID      string              `json:"channel_id"`
	UserID         string              `json:"user_id"`
	MessageTS      string              `json:"message_ts,omitempty"`
	Style          domain.StylePrefs   `json:"style"`
	Sharing        domain.SharingPrefs `json:"sharing"`
}

type createEmojiResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// CreateEmoji accepts an authenticated generation request, constructs the job,
// and enqueues it. The response returns before any generation work happens;
// failures past this point are observable only via the job status query.
func (a *App) CreateEmoji(w http.ResponseWriter, r *http.Request) {
	var req createEmojiRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	job, err := domain.NewJob(
		req.Description,
		req.MessageContext,
		req.Name,
		req.Style,
		req.Sharing,
		req.ChannelID,
		req.UserID,
		req.MessageTS,
		middleware.TraceIDFromContext(r.Context()),
	)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.jsonError(w, http.StatusInternalServerError, "job construction failed")
		return
	}

	if _, err := a.jobs.Enqueue(r.Context(), job); err != nil {
		a.logger.Error().Err(err).Str("trace_id", job.TraceID).Msg("handlers: enqueue failed")
		a.jsonError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	a.logger.Info().
		Str("job_id", job.ID).
		Str("trace_id", job.TraceID).
		Msg("handlers: job enqueued")
	a.json(w, http.StatusAccepted, createEmojiResponse{JobID: job.ID, Status: string(job.Status)})
}
