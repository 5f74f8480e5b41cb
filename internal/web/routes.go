package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/omrscanner/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	scanHandler := handlers.NewScanHandler(s.config)
	templateHandler := handlers.NewTemplateHandler()
	resultHandler := handlers.NewResultHandler()

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/scan", scanHandler.Scan)
		r.Post("/templates", templateHandler.Create)
		r.Get("/templates/{id}", templateHandler.Get)
		r.Get("/results/{id}", resultHandler.Get)
	})
}
