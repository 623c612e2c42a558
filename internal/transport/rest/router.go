package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/checkscam/checkscam-backend/internal/transport/middleware"
)

// Handlers groups the route targets mounted by NewRouter.
type Handlers struct {
	Lookup *LookupHandler
	Admin  *AdminHandler
	Health *HealthHandler
}

// RouterMiddleware carries the middleware NewRouter applies. Global wraps
// every route; PublicLimit wraps only the public lookup routes.
type RouterMiddleware struct {
	Global      []middleware.Middleware
	PublicLimit middleware.Middleware
}

// NewRouter mounts the health, public lookup and admin lookup routes.
func NewRouter(h Handlers, mw RouterMiddleware) http.Handler {
	r := chi.NewRouter()
	for _, m := range mw.Global {
		r.Use(m)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			if mw.PublicLimit != nil {
				pub.Use(mw.PublicLimit)
			}
			pub.Get("/lookup/phone", h.Lookup.Phone)
			pub.Get("/lookup/bank", h.Lookup.Bank)
			pub.Get("/lookup/url", h.Lookup.URL)
			pub.Post("/lookup", h.Lookup.ByType)
		})

		api.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireAdmin())
			admin.Get("/admin/lookup", h.Admin.Lookup)
			admin.Delete("/admin/lookup", h.Admin.Invalidate)
			admin.Get("/admin/lookup/stats", h.Admin.Stats)
		})
	})

	return r
}
