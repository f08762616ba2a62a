package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/autopilot/internal/application"
)

type Handler struct {
	service *application.Service
}

func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/workflow/run", handler.runWorkflow)
			r.Get("/workflow/status", handler.workflowStatus)
			r.Get("/jobs/{id}", handler.getJob)
			r.Get("/analyses/{job_id}", handler.getAnalysis)
			r.Delete("/analyses/{job_id}", handler.invalidateAnalysis)
			r.Get("/abtests/{id}", handler.getABTest)
			r.Post("/abtests/{id}/impressions", handler.recordImpressions)
			r.Post("/abtests/{id}/clicks", handler.recordClicks)
			r.Get("/reports/{date}", handler.getReport)
		})
	})
	return r
}
