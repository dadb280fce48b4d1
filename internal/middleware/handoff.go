package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/staffhive/staffhive/internal/service"
)

// handoffTokenParam is the query parameter carrying a handoff token onto
// a tenant subdomain.
const handoffTokenParam = "token"

// Handoff is middleware that redeems a handoff token presented on a
// tenant subdomain and converts it into a tenant-scoped session cookie.
// It runs after ResolveTenant and before Session.
//
// On success the browser is redirected to the same URL with the token
// parameter stripped, so the token never lingers in history or referrer
// headers. Every failure lets the request continue anonymously; the
// downstream guards produce the error response, not this middleware.
func Handoff(handoff *service.HandoffService, auth *service.AuthService, secure bool, sessionExpiry time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := TenantFromContext(r.Context())
			if t == nil {
				next.ServeHTTP(w, r)
				return
			}

			value := r.URL.Query().Get(handoffTokenParam)
			if value == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, err := handoff.Consume(r.Context(), t.ID, value, time.Now())
			if err != nil {
				slog.Debug("handoff rejected", "tenant", t.Slug, "reason", err)
				next.ServeHTTP(w, r)
				return
			}

			token, err := auth.IssueSession(u, t.ID)
			if err != nil {
				slog.Error("handoff session issue failed", "tenant", t.Slug, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			http.SetCookie(w, NewSessionCookie(token, sessionExpiry, secure))

			clean := *r.URL
			q := clean.Query()
			q.Del(handoffTokenParam)
			clean.RawQuery = q.Encode()
			http.Redirect(w, r, clean.String(), http.StatusSeeOther)
		})
	}
}
