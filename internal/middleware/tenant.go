package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/staffhive/staffhive/internal/domain"
	"github.com/staffhive/staffhive/internal/domain/tenant"
)

type tenantCtxKey struct{}

// TenantDirectory is the slug lookup the resolver needs.
type TenantDirectory interface {
	GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// ResolveTenant is middleware that maps the request's Host header to a
// tenant. Requests to the bare root domain pass through with no tenant
// bound (login, selection, registration, platform admin all live there).
// On a subdomain the leftmost label is looked up as a slug; an unknown
// slug is terminal with a 404. The resolved tenant is bound to the
// request context only, so a worker serving tenant A and then tenant B
// never carries state between the two.
func ResolveTenant(dir TenantDirectory, rootDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := hostname(r.Host)
			if host == rootDomain {
				next.ServeHTTP(w, r)
				return
			}

			slug, ok := strings.CutSuffix(host, "."+rootDomain)
			if !ok || strings.Contains(slug, ".") {
				http.Error(w, `{"error":"tenant not found"}`, http.StatusNotFound)
				return
			}

			t, err := dir.GetBySlug(r.Context(), slug)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					http.Error(w, `{"error":"tenant not found"}`, http.StatusNotFound)
					return
				}
				http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), tenantCtxKey{}, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant bound by ResolveTenant, or nil on
// the central domain.
func TenantFromContext(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantCtxKey{}).(*tenant.Tenant)
	return t
}

// WithTenant binds a tenant to ctx. Exported for tests and CLI paths that
// bypass the HTTP resolver.
func WithTenant(ctx context.Context, t *tenant.Tenant) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, t)
}

// hostname strips an optional port from a Host header value.
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
