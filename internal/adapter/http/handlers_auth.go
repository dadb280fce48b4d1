package http

import (
	"errors"
	"net/http"

	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/middleware"
	"github.com/staffhive/staffhive/internal/service"
)

// RegisterUser creates a platform account on the central domain.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.CreateRequest](w, r)
	if !ok {
		return
	}

	u, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login authenticates on the central domain and routes the user onward
// based on how many tenants they belong to:
//
//   - zero memberships: redirect to tenant registration, no token issued
//   - exactly one: issue a handoff token and redirect straight to the
//     tenant subdomain, skipping the selection screen
//   - several: return the membership list for an explicit choice
//
// A central-domain session cookie is set in every case so the follow-up
// selection request is already authenticated.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r)
	if !ok {
		return
	}

	u, err := h.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeDomainError(w, err, "user not found")
		return
	}

	session, err := h.auth.IssueSession(u, "")
	if err != nil {
		writeInternalError(w, err)
		return
	}
	http.SetCookie(w, middleware.NewSessionCookie(session, h.cfg.Auth.SessionExpiry, h.secureCookies()))

	memberships, err := h.handoff.Memberships(r.Context(), u.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	switch len(memberships) {
	case 0:
		http.Redirect(w, r, "/register", http.StatusSeeOther)
	case 1:
		h.redirectWithHandoff(w, r, u.ID, memberships[0].TenantID)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"memberships": memberships})
	}
}

// SelectTenant issues a handoff token for an explicitly chosen tenant.
// Choosing a tenant the user is not a member of is forbidden.
func (h *Handlers) SelectTenant(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())

	req, ok := readJSON[struct {
		TenantID string `json:"tenant_id"`
	}](w, r)
	if !ok {
		return
	}
	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}

	h.redirectWithHandoff(w, r, u.ID, req.TenantID)
}

// redirectWithHandoff issues a member-checked handoff token and redirects
// to {slug}.{root-domain}/?token=...
func (h *Handlers) redirectWithHandoff(w http.ResponseWriter, r *http.Request, userID, tenantID string) {
	tok, err := h.handoff.IssueForMember(r.Context(), userID, tenantID)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}

	t, err := h.directory.Get(r.Context(), tenantID)
	if err != nil {
		writeDomainError(w, err, "tenant not found")
		return
	}

	http.Redirect(w, r, h.handoff.RedirectURL(t, tok), http.StatusSeeOther)
}

// Memberships returns the selection list for the signed-in user, ordered
// by tenant name.
func (h *Handlers) Memberships(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromContext(r.Context())

	memberships, err := h.handoff.Memberships(r.Context(), u.ID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memberships": memberships})
}

// Logout clears the session cookie for the current host.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, middleware.ClearSessionCookie(h.secureCookies()))
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in user.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.UserFromContext(r.Context()))
}
