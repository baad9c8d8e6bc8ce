package handlers

import (
	"net/http"
)

// Health is a fixed liveness probe, independent of the generation pipeline.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
