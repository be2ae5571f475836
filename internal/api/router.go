// Package api exposes the datasets over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/finance-tables/pkg/datasets"
)

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter builds the HTTP handler serving svc under /api.
func NewRouter(svc *datasets.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	datasetsHandler := NewDatasetsHandler(svc, logger)
	reportsHandler := NewReportsHandler(svc, logger)

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(CORSMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Health check endpoint.
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, HealthResponse{
				Status:  "OK",
				Message: "Servidor funcionando correctamente",
			})
		})

		// Report endpoints.
		r.Get("/resumen/{dimension}", reportsHandler.Balances)
		r.Get("/dashboard", reportsHandler.Dashboard)
		r.Get("/historial", reportsHandler.History)

		// Dataset endpoints.
		r.Route("/{dataset}", func(r chi.Router) {
			r.Get("/", datasetsHandler.List)
			r.Post("/", datasetsHandler.Create)
			r.Put("/{id}", datasetsHandler.Update)
			r.Delete("/{id}", datasetsHandler.Delete)
		})
	})

	return r
}
