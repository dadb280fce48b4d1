package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/staffhive/staffhive/internal/middleware"
)

// MountRoutes registers the full host-routed surface on the given chi
// router. One route table serves both the central domain and every
// tenant subdomain; the middleware chain decides per request which
// surface the host selects:
//
//	ResolveTenant -> SwitchTenantStore -> Handoff -> Session -> Authorize -> MembershipGuard
//
// Central-domain requests skip the tenant steps; subdomain requests are
// member-gated everywhere except the handoff landing page.
func MountRoutes(r chi.Router, h *Handlers, pools middleware.PoolProvider) {
	// Liveness probe, reachable under any Host header.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ResolveTenant(h.directory, h.cfg.Server.RootDomain))
		r.Use(middleware.SwitchTenantStore(pools))
		r.Use(middleware.Handoff(h.handoff, h.auth, h.secureCookies(), h.cfg.Auth.SessionExpiry))
		r.Use(middleware.Session(h.auth))
		r.Use(middleware.Authorize(h.policy))
		r.Use(middleware.MembershipGuard)

		// Landing page on both surfaces; handoff target on subdomains.
		r.Get("/", h.Home)

		// Central-domain authentication and tenant selection.
		r.Post("/auth/register", h.RegisterUser)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)
		r.With(middleware.RequireUser).Get("/auth/me", h.Me)
		r.With(middleware.RequireUser).Get("/auth/memberships", h.Memberships)
		r.With(middleware.RequireUser).Post("/auth/select", h.SelectTenant)

		// Tenant registration flow. GET is the redirect target for users
		// who finished login with no memberships.
		r.Get("/register", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"register": "POST /tenants"})
		})
		r.With(middleware.RequireUser).Post("/tenants", h.RegisterTenant)

		// Platform operator surface.
		r.With(middleware.RequireOperator).Get("/platform/tenants", h.ListTenants)

		// Bound-tenant routes, subdomain only.
		r.With(middleware.RequireMember).Get("/tenant", h.GetCurrentTenant)
		r.With(middleware.RequireAdmin).Put("/tenant", h.UpdateCurrentTenant)
		r.With(middleware.RequireAdmin).Delete("/tenant/members/{userID}", h.RevokeMembership)
	})
}
