package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/staffhive/staffhive/internal/domain/user"
	"github.com/staffhive/staffhive/internal/service"
)

// SessionCookieName is the cookie carrying the signed session token.
// Cookies are host-scoped, so a central-domain session is never visible
// on a tenant subdomain and vice versa.
const SessionCookieName = "staffhive_session"

type sessionUserCtxKey struct{}

// Session is middleware that authenticates the request from its session
// cookie. Missing, invalid, or wrongly scoped cookies leave the request
// anonymous rather than failing it; route guards decide what anonymous
// requests may do.
func Session(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(SessionCookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			u, claims, err := auth.UserFromToken(r.Context(), c.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			// A session is scoped to the surface it was issued for: a
			// tenant-scoped session only counts on that tenant's
			// subdomain, a central session only on the root domain.
			t := TenantFromContext(r.Context())
			if t != nil && claims.TenantID != t.ID {
				next.ServeHTTP(w, r)
				return
			}
			if t == nil && claims.TenantID != "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionUserCtxKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(sessionUserCtxKey{}).(*user.User)
	return u
}

// WithUser binds an authenticated user to ctx. Exported for tests.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, sessionUserCtxKey{}, u)
}

// NewSessionCookie builds the session cookie for a signed token.
func NewSessionCookie(token string, expiry time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(expiry / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie builds an expired session cookie for logout.
func ClearSessionCookie(secure bool) *http.Cookie {
	c := NewSessionCookie("", 0, secure)
	c.MaxAge = -1
	return c
}
