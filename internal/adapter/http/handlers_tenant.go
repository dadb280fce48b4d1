package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/staffhive/staffhive/internal/domain/tenant"
	"github.com/staffhive/staffhive/internal/middleware"
)

// RegisterTenant provisions a new tenant: directory row, isolated schema,
// tenant migrations, and an administrator membership for the caller. The
// operation is all-or-nothing; a provisioning failure surfaces as an
// error, never as a half-registered tenant.
func (h *Handlers) RegisterTenant(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())

	req, ok := readJSON[tenant.CreateRequest](w, r)
	if !ok {
		return
	}

	t, err := h.directory.Register(r.Context(), req, u.ID)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ListTenants returns the whole directory; platform operators only.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.directory.List(r.Context())
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

// Home is the tenant subdomain landing page and the handoff target. It is
// deliberately outside the membership guard so a token-bearing redirect
// can land here before any session exists.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())
	if t == nil {
		writeJSON(w, http.StatusOK, map[string]any{"service": "staffhive"})
		return
	}

	resp := map[string]any{
		"tenant":   t.Name,
		"slug":     t.Slug,
		"branding": t.Branding,
	}
	if u := middleware.UserFromContext(r.Context()); u != nil {
		resp["user"] = u
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetCurrentTenant returns the bound tenant's full directory record.
func (h *Handlers) GetCurrentTenant(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.TenantFromContext(r.Context()))
}

// UpdateCurrentTenant updates the bound tenant's mutable settings. The
// slug is not among them: it names the subdomain and the schema.
func (h *Handlers) UpdateCurrentTenant(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())

	req, ok := readJSON[tenant.UpdateRequest](w, r)
	if !ok {
		return
	}

	updated, err := h.directory.Update(r.Context(), t.ID, req)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// RevokeMembership detaches a user from the bound tenant. Any handoff
// token issued before revocation dies at its membership re-check.
func (h *Handlers) RevokeMembership(w http.ResponseWriter, r *http.Request) {
	t := middleware.TenantFromContext(r.Context())
	userID := chi.URLParam(r, "userID")

	if err := h.directory.RevokeMembership(r.Context(), userID, t.ID); err != nil {
		writeDomainError(w, err, "membership not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
