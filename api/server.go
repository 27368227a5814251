/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests from the UI shell

ROUTE GROUPS:
  /api/books/*         Book registry, per-book views and exports
  /api/transactions/*  Ledger commands addressed by transaction id
  /api/settings        Ledger settings
  /api/reset           Delete everything
  /api/health          Liveness and checkpoint status
  /api/scenarios/*     Demo data loaders

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
)

// NewRouter creates a new router with all routes configured. An empty
// origins list allows any origin.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.Route("/api", func(r chi.Router) {
		// Book routes
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.ListBooks)
			r.Post("/", h.CreateBook)
			r.Delete("/", h.ClearBooks)
			r.Get("/active", h.GetActiveBook)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetBook)
				r.Delete("/", h.DeleteBook)
				r.Post("/activate", h.ActivateBook)

				r.Get("/balance", h.GetBalance)
				r.Get("/transactions", h.ListTransactions)
				r.Post("/transactions", h.CreateTransaction)
				r.Get("/recent", h.RecentTransactions)
				r.Get("/passbook", h.GetPassbook)
				r.Get("/series/daily", h.DailySeries)
				r.Get("/series/weekly", h.WeeklySeries)
				r.Get("/budget", h.GetBudget)
				r.Get("/savings", h.GetSavings)

				r.Route("/export", func(r chi.Router) {
					r.Get("/csv", h.ExportCSV)
					r.Get("/xlsx", h.ExportXLSX)
					r.Get("/invoice", h.ExportInvoice)
					r.Get("/passbook", h.ExportPassbook)
				})
			})
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Delete("/", h.ClearTransactions)
			r.Get("/{id}", h.GetTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Get("/settings", h.GetSettings)
		r.Patch("/settings", h.UpdateSettings)
		r.Post("/reset", h.Reset)
		r.Get("/health", h.Health)

		// Scenario routes (demo/testing)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
