/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/users          Owner registration
  /api/banks/*        Bank CRUD
  /api/budgets/*      Budget CRUD
  /api/cards/*        Card CRUD
  /api/installments/* Installment lifecycle + summary
  /api/admin/*        Sweep trigger and run history

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.RegisterUser)

		r.Route("/banks", func(r chi.Router) {
			r.Get("/", h.ListBanks)
			r.Post("/", h.CreateBank)
			r.Get("/{id}", h.GetBank)
			r.Put("/{id}", h.UpdateBank)
			r.Delete("/{id}", h.DeleteBank)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.Post("/", h.CreateBudget)
			r.Get("/{id}", h.GetBudget)
			r.Put("/{id}", h.UpdateBudget)
			r.Delete("/{id}", h.DeleteBudget)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Post("/", h.CreateCard)
			r.Get("/{id}", h.GetCard)
			r.Put("/{id}", h.UpdateCard)
			r.Delete("/{id}", h.DeleteCard)
		})

		r.Route("/installments", func(r chi.Router) {
			r.Get("/", h.ListInstallments)
			r.Post("/", h.CreateInstallment)
			r.Get("/summary", h.InstallmentSummary)
			r.Get("/{id}", h.GetInstallment)
			r.Put("/{id}", h.UpdateInstallment)
			r.Delete("/{id}", h.DeleteInstallment)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.TriggerSweep)
			r.Get("/sweep/runs", h.ListSweepRuns)
		})
	})

	return r
}
