package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"emojigen/internal/domain"
	"emojigen/internal/infra"
	"emojigen/internal/queue"
)

// JobStore is the queue surface the intake handlers depend on.
type JobStore interface {
	Enqueue(ctx context.Context, job *domain.Job) (string, error)
	GetStatus(ctx context.Context, jobID string) (*queue.JobSummary, error)
	ListRecent(ctx context.Context, limit int) ([]queue.JobSummary, error)
}

// App bundles the dependencies shared by the intake handlers.
type App struct {
	jobs   JobStore
	logger infra.Logger
}

// NewApp constructs the handler container.
func NewApp(jobs JobStore, logger infra.Logger) *App {
	return &App{jobs: jobs, logger: logger}
}

func (a *App) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Error().Err(err).Msg("handlers: encode response failed")
	}
}

func (a *App) jsonError(w http.ResponseWriter, status int, message string) {
	a.json(w, status, map[string]string{"error": message})
}
