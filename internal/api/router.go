package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/alexanderramin/clustertrack/internal/app"
)

// NewRouter exposes the controller over a small local HTTP surface: read
// views for scripts and an activity intake for external event feeds.
func NewRouter(ctrl *app.Controller, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandler(ctrl)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/today", h.Today)
		r.Get("/days", h.Days)
		r.Get("/stars", h.Stars)
		r.Get("/hosts/{host}", h.Host)
		r.Get("/export", h.Export)
		r.Get("/logs", h.Logs)
		r.Post("/reload", h.Reload)
		r.Post("/activity", h.Activity)
		r.Put("/favorites/{host}", h.Star)
		r.Delete("/favorites/{host}", h.Unstar)
	})

	return r
}
