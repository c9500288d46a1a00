// Package httptransport is the thin HTTP layer over the domain services.
// Handlers decode, delegate and encode; authorization stays in the services.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	rgpdservice "custodia/internal/rgpd/service"
	tenantservice "custodia/internal/tenant/service"
	userservice "custodia/internal/user/service"
	"custodia/pkg/platform/middleware/auth"
	"custodia/pkg/platform/middleware/requesttime"
)

// Services bundles the domain services the API fronts.
type Services struct {
	Tenants *tenantservice.Service
	Users   *userservice.Service
	RGPD    *rgpdservice.Service
}

// NewRouter wires the authenticated API routes. Every route runs behind
// bearer-token authentication; request time is pinned once per request.
func NewRouter(svc Services, signingKey []byte, logger *slog.Logger) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(requesttime.Middleware)
	r.Use(auth.RequireActor(signingKey, logger))

	r.Route("/tenants", func(r chi.Router) {
		r.Post("/", h.createTenant)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", h.getTenant)
			r.Post("/suspend", h.suspendTenant)
			r.Post("/reactivate", h.reactivateTenant)

			r.Post("/users", h.createUser)
			r.Post("/admins", h.createAdmin)
			r.Route("/users/{userID}", func(r chi.Router) {
				r.Get("/", h.getUser)
				r.Delete("/", h.softDeleteUser)
				r.Post("/erasure", h.requestErasure)
			})

			r.Delete("/exports/{exportID}", h.shredExport)
		})
	})

	return r
}
