package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"emojigen/internal/http/handlers"
	"emojigen/internal/infra"
	"emojigen/internal/middleware"
)

// NewRouter assembles the intake surface. The emoji intake route is the only
// one behind signature verification; status and health are unauthenticated
// side channels.
func NewRouter(app *handlers.App, cfg *infra.Config, logger infra.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.TraceID, chimw.RealIP, chimw.Recoverer, middleware.Logger(logger))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/emoji", func(r chi.Router) {
		r.Use(middleware.SlackSignature(cfg.SlackSigningSecret))
		r.Post("/", app.CreateEmoji)
	})

	r.Route("/v1/jobs", func(r chi.Router) {
		r.Get("/", app.ListJobs)
		r.Get("/{id}", app.GetJob)
	})

	return r
}
