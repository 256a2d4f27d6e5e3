/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/tenants/*    Tenant management, invoices, completeness
  /api/meters/*     Readings, tariffs, deduction suggestions
  /api/tariffs/*    Tariff templates
  /api/invoices/*   Invoice lookup and adjustments
  /api/links        Deduction links
  /api/admin/*      Batch billing
  /metrics          Prometheus scrape endpoint
  /health           Liveness probe

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Tenant routes
		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.ListTenants)
			r.Post("/", h.CreateTenant)
			r.Get("/{id}", h.GetTenant)
			r.Get("/{id}/meters", h.ListMeters)
			r.Post("/{id}/meters", h.CreateMeter)
			r.Get("/{id}/invoices", h.ListInvoices)
			r.Post("/{id}/invoices", h.GenerateInvoice)
			r.Get("/{id}/completeness", h.Completeness)
		})

		// Meter routes
		r.Route("/meters", func(r chi.Router) {
			r.Delete("/{id}", h.DeleteMeter)
			r.Post("/{id}/readings", h.UpsertReading)
			r.Get("/{id}/tariffs", h.ListTariffs)
			r.Post("/{id}/tariffs", h.CreateTariff)
			r.Get("/{id}/suggestions", h.SuggestDeductions)
		})

		// Tariff routes
		r.Route("/tariffs", func(r chi.Router) {
			r.Get("/templates", h.ListTariffTemplates)
		})

		// Invoice routes
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{id}", h.GetInvoice)
			r.Get("/{id}/adjustments", h.ListAdjustments)
			r.Post("/{id}/adjustments", h.AddAdjustment)
		})

		// Deduction link routes
		r.Post("/links", h.CreateDeductionLink)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/batch", h.RunBatch)
		})
	})

	// Observability
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
