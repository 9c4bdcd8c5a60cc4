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
  4. CORS:       Cross-origin requests for the landlord and tenant portals

ROUTE GROUPS:
  /api/landlord/*       Landlord lease and payment management
  /api/tenant/*         Tenant lease offers
  /api/leases/{id}      Lease details for either party
  /api/rules/*          Stateless rule evaluation
  /api/scenarios/*      Demo scenarios
  /api/admin/*          Admin operations

SECURITY NOTE:
  No authentication middleware. The X-Actor header is trusted as-is and must
  be set by an authenticating proxy in front of this service.

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
	"github.com/warp/lease-engine/lease"
)

// DefaultOrigins are the local portal dev servers.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ActorHeader},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Landlord routes
		r.Route("/landlord", func(r chi.Router) {
			r.Route("/leases", func(r chi.Router) {
				r.Get("/", h.ListLandlordLeases)
				r.Post("/", h.CreateLease)
				r.Put("/{id}", h.EditLease)
				r.Post("/{id}/cancel", h.LeaseAction(lease.ActionCancel))
				r.Post("/{id}/terminate", h.LeaseAction(lease.ActionTerminate))
				r.Post("/{id}/complete", h.LeaseAction(lease.ActionComplete))
				r.Post("/{id}/payments", h.RecordPayment)
			})
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", h.ListPayments)
				r.Patch("/{id}/mark-paid", h.MarkPaid)
				r.Get("/{id}/timing", h.PreviewTiming)
			})
		})

		// Tenant routes
		r.Route("/tenant", func(r chi.Router) {
			r.Get("/leases", h.ListTenantLeases)
			r.Patch("/leases/{id}/action", h.TenantAction)
		})

		// Either party
		r.Get("/leases/{id}", h.GetLease)

		// Rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Post("/classify", h.Classify)
			r.Post("/behavior", h.Behavior)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Get("/reminders", h.ReminderStatus)
			r.Post("/reminders", h.RunReminders)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"service": "lease-engine", "api": "/api"})
	})

	return r
}
